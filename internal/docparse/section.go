package docparse

// Language identifies one of the four source languages a manual section
// may declare a call for.
type Language int8

const (
	LangC Language = iota
	LangEEL
	LangLua
	LangPython
)

func (l Language) String() string {
	switch l {
	case LangC:
		return "C"
	case LangEEL:
		return "EEL2"
	case LangLua:
		return "Lua"
	case LangPython:
		return "Python"
	default:
		return "unknown"
	}
}

// languageClasses maps the div class of a multilingual block to its
// language.
var languageClasses = map[string]Language{
	"c_func": LangC,
	"e_func": LangEEL,
	"l_func": LangLua,
	"p_func": LangPython,
}

// languagePrefixes are the literal tags each multilingual block starts
// with. The prefix is stripped from the extracted call text.
var languagePrefixes = map[Language]string{
	LangC:      "C:",
	LangEEL:    "EEL2:",
	LangLua:    "Lua:",
	LangPython: "Python:",
}

// ignoredSections are the manual's table-of-contents sections, dropped
// silently before any other handling.
var ignoredSections = map[string]bool{
	"function_list": true,
	"eel_list":      true,
	"lua_list":      true,
	"python_list":   true,
}

// Section is one named unit of the manual, either a GenericSection or a
// CallSection. Consumers switch over the two concrete types.
type Section interface {
	SectionName() string
	sealed()
}

// GenericSection is a section with no call text in any language, such as
// the manual's introduction.
type GenericSection struct {
	Name        string
	Description string
}

func (s *GenericSection) SectionName() string { return s.Name }
func (s *GenericSection) sealed()             {}

// CallSection is a section declaring an API call in at least one language.
// Calls holds the raw, prefix-stripped call text per language.
type CallSection struct {
	Name        string
	Description string
	Calls       map[Language]string
}

func (s *CallSection) SectionName() string { return s.Name }
func (s *CallSection) sealed()             {}

// Call returns the raw call text for lang.
func (s *CallSection) Call(lang Language) (string, bool) {
	text, ok := s.Calls[lang]
	return text, ok
}
