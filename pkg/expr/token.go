package expr

import "fmt"

// tokenKind enumerates the lexical token types of the formula language.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenQuotedIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenCaret
	tokenLParen
	tokenRParen
	tokenComma
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of expression"
	case tokenNumber:
		return "number"
	case tokenIdent:
		return "identifier"
	case tokenQuotedIdent:
		return "quoted identifier"
	case tokenPlus:
		return "'+'"
	case tokenMinus:
		return "'-'"
	case tokenStar:
		return "'*'"
	case tokenSlash:
		return "'/'"
	case tokenCaret:
		return "'^'"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenComma:
		return "','"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

// token is a lexical token with its position in the source. Start and
// End are byte offsets; Text is the token content with quote
// delimiters stripped for quoted identifiers.
type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
}
