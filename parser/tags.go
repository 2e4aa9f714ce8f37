package parser

import "strings"

func makeTagSet(list string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, name := range strings.Split(list, ",") {
		set[name] = struct{}{}
	}
	return set
}

// requiredCloseTags holds the elements whose end tag the tokenizer tracks.
// It is the HTML 4.01 loose DTD list of elements with a required end tag,
// plus TR, TH and TD (browsers behave poorly without them), plus the
// non-empty elements whose end tag the DTD marks optional. Empty elements
// such as IMG or BR, and anything not defined by HTML 4.01 (<o:p>), are
// passed through without ever getting an end tag.
var requiredCloseTags = makeTagSet(
	"TT,I,B,U,S,STRIKE,BIG,SMALL,EM,STRONG,DFN,CODE,SAMP,KBD,VAR," +
		"CITE,ABBR,ACRONYM,SUB,SUP,SPAN,BDO,FONT,ADDRESS,DIV,CENTER,A," +
		"MAP,OBJECT,APPLET,H1,H2,H3,H4,H5,H6,PRE,Q,BLOCKQUOTE,INS,DEL," +
		"DL,DT,DD,OL,DIR,MENU,UL,FORM,LABEL,SELECT,OPTGROUP,OPTION," +
		"TEXTAREA,FIELDSET,LEGEND,BUTTON,TABLE,CAPTION,TR,TH,TD," +
		"FRAMESET,IFRAME,NOFRAMES,TITLE,STYLE,SCRIPT,NOSCRIPT," +
		"P,LI,HTML,HEAD,BODY,THEAD,TBODY,TFOOT,COLGROUP")

// reopenClosesTags cannot nest directly inside themselves: a second <p>
// while a <p> is the innermost open element closes the first one.
var reopenClosesTags = makeTagSet("P,LI,DT,DD,OPTION,TR,TD,TH")

func closeTagRequired(name string) bool {
	_, ok := requiredCloseTags[strings.ToUpper(name)]
	return ok
}

func reopenCloses(name string) bool {
	_, ok := reopenClosesTags[strings.ToUpper(name)]
	return ok
}

// CloseTagRequired reports whether the tokenizer tracks the end tag of the
// named element. The lookup is case insensitive.
func CloseTagRequired(name string) bool {
	return closeTagRequired(name)
}

func lastIndexFold(stack []string, name string) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if strings.EqualFold(stack[i], name) {
			return i
		}
	}
	return -1
}
