package expr

import (
	"strconv"
	"strings"

	"github.com/plotdeck/plotdeck/pkg/errors"
)

// parser is a precedence-climbing expression parser over the token
// stream. The grammar is small enough that a hand-written parser
// stays clearer than a generated one.
type parser struct {
	tokens []token
	pos    int
}

func parse(src string) (node, error) {
	tokens, err := lexAll(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	root, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokenEOF {
		return nil, errors.New(errors.ErrCodeParse,
			"unexpected %v at offset %d", t.kind, t.start)
	}
	return root, nil
}

// Binding powers. Power is right-associative and binds tighter than
// unary minus, so -x^2 parses as -(x^2).
const (
	bpAdd   = 10
	bpMul   = 20
	bpUnary = 25
	bpPow   = 30
)

func bindingPower(k tokenKind) int {
	switch k {
	case tokenPlus, tokenMinus:
		return bpAdd
	case tokenStar, tokenSlash:
		return bpMul
	case tokenCaret:
		return bpPow
	default:
		return 0
	}
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseExpr(minBP int) (node, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		bp := bindingPower(t.kind)
		if bp == 0 || bp < minBP {
			return left, nil
		}
		p.advance()

		nextBP := bp + 1
		if t.kind == tokenCaret {
			nextBP = bp
		}
		right, err := p.parseExpr(nextBP)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.kind, left: left, right: right}
	}
}

func (p *parser) parsePrefix() (node, error) {
	t := p.advance()
	switch t.kind {
	case tokenNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeParse,
				"malformed number %q at offset %d", t.text, t.start)
		}
		return numberNode(v), nil

	case tokenMinus, tokenPlus:
		operand, err := p.parseExpr(bpUnary)
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: t.kind, operand: operand}, nil

	case tokenLParen:
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if t := p.peek(); t.kind != tokenRParen {
			return nil, errors.New(errors.ErrCodeParse,
				"expected ')' at offset %d, found %v", t.start, t.kind)
		}
		p.advance()
		return inner, nil

	case tokenQuotedIdent:
		return refNode(Ref{Dataset: t.text, Part: PartData}), nil

	case tokenIdent:
		if p.peek().kind == tokenLParen {
			return p.parseCall(t)
		}
		if c, ok := constants[t.text]; ok {
			return numberNode(c), nil
		}
		return refNode(splitPartSuffix(t.text)), nil

	case tokenEOF:
		return nil, errors.New(errors.ErrCodeParse, "unexpected end of expression")

	default:
		return nil, errors.New(errors.ErrCodeParse,
			"unexpected %v at offset %d", t.kind, t.start)
	}
}

func (p *parser) parseCall(nameTok token) (node, error) {
	fn, ok := builtins[nameTok.text]
	if !ok {
		return nil, errors.New(errors.ErrCodeParse,
			"unknown function %q at offset %d", nameTok.text, nameTok.start)
	}
	p.advance() // consume '('

	var args []node
	if p.peek().kind != tokenRParen {
		for {
			arg, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokenComma {
				break
			}
			p.advance()
		}
	}

	if t := p.peek(); t.kind != tokenRParen {
		return nil, errors.New(errors.ErrCodeParse,
			"expected ')' at offset %d, found %v", t.start, t.kind)
	}
	p.advance()

	if len(args) != fn.arity {
		return nil, errors.New(errors.ErrCodeParse,
			"%s() takes %d argument(s), got %d", fn.name, fn.arity, len(args))
	}
	return &callNode{fn: fn, args: args}, nil
}

// RewriteRefs returns src with every dataset reference renamed through
// rename. Replacements are spliced by token offset, so spacing and
// structure of the original text are preserved. The dataset store uses
// this when a dataset is renamed so that stored formulas keep
// referring to the same data.
func RewriteRefs(src string, rename func(name string) string) (string, error) {
	tokens, err := lexAll(src)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	last := 0
	for i, t := range tokens {
		if t.kind == tokenEOF {
			break
		}

		var newText string
		switch t.kind {
		case tokenQuotedIdent:
			newName := rename(t.text)
			if newName == t.text {
				continue
			}
			newText = QuoteName(newName)

		case tokenIdent:
			if tokens[i+1].kind == tokenLParen {
				continue // function name
			}
			if _, ok := constants[t.text]; ok {
				continue
			}
			ref := splitPartSuffix(t.text)
			newName := rename(ref.Dataset)
			if newName == ref.Dataset {
				continue
			}
			if ref.Part == PartData {
				newText = QuoteName(newName)
				break
			}
			candidate := newName + "_" + string(ref.Part)
			if isBareIdent(candidate) && splitPartSuffix(candidate) == (Ref{Dataset: newName, Part: ref.Part}) {
				newText = candidate
				break
			}
			return "", errors.New(errors.ErrCodeInvalidName,
				"cannot reference column %s of dataset %q from a formula", ref.Part, newName)

		default:
			continue
		}

		b.WriteString(src[last:t.start])
		b.WriteString(newText)
		last = t.end
	}
	b.WriteString(src[last:])
	return b.String(), nil
}

// isBareIdent reports whether s lexes as a single plain identifier.
func isBareIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if i > 0 && !isIdentPart(r) {
			return false
		}
	}
	if _, ok := constants[s]; ok {
		return false
	}
	return true
}
