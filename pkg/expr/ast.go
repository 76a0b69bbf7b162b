package expr

import "github.com/plotdeck/plotdeck/pkg/errors"

// node is an expression tree node. Evaluation is a straightforward
// tree walk; expressions are small enough that compiling further
// buys nothing.
type node interface {
	eval(r Resolver) (Value, error)
}

type numberNode float64

func (n numberNode) eval(Resolver) (Value, error) {
	return Scalar(float64(n)), nil
}

type refNode Ref

func (n refNode) eval(r Resolver) (Value, error) {
	vs, err := r.Resolve(Ref(n))
	if err != nil {
		return Value{}, err
	}
	return Vector(vs), nil
}

type unaryNode struct {
	op      tokenKind
	operand node
}

func (n *unaryNode) eval(r Resolver) (Value, error) {
	v, err := n.operand.eval(r)
	if err != nil {
		return Value{}, err
	}
	if n.op == tokenMinus {
		return unary(v, func(x float64) float64 { return -x }), nil
	}
	return v, nil
}

type binaryNode struct {
	op    tokenKind
	left  node
	right node
}

func (n *binaryNode) eval(r Resolver) (Value, error) {
	a, err := n.left.eval(r)
	if err != nil {
		return Value{}, err
	}
	b, err := n.right.eval(r)
	if err != nil {
		return Value{}, err
	}
	return applyOp(n.op, a, b)
}

type callNode struct {
	fn   *builtin
	args []node
}

func (n *callNode) eval(r Resolver) (Value, error) {
	vals := make([]Value, len(n.args))
	for i, arg := range n.args {
		v, err := arg.eval(r)
		if err != nil {
			return Value{}, err
		}
		vals[i] = v
	}
	v, err := n.fn.fn(vals)
	if err != nil {
		return Value{}, errors.Wrap(errors.ErrCodeEval, err, "in %s()", n.fn.name)
	}
	return v, nil
}
