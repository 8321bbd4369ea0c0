package compiler

import (
	langtok "github.com/mna/glox/lang/token"
	"github.com/mna/glox/lang/value"
)

// rules is indexed by langtok.Token; sized well past the last defined token
// kind so new tokens never need a resize here.
var rules [64]parseRule

func init() {
	set := func(tok langtok.Token, prefix, infix parseFn, prec precedence) {
		rules[tok] = parseRule{prefix: prefix, infix: infix, prec: prec}
	}

	set(langtok.LPAREN, grouping, call, precCall)
	set(langtok.DOT, nil, dot, precCall)
	set(langtok.MINUS, unary, binary, precTerm)
	set(langtok.PLUS, nil, binary, precTerm)
	set(langtok.SLASH, nil, binary, precFactor)
	set(langtok.STAR, nil, binary, precFactor)
	set(langtok.BANG, unary, nil, precNone)
	set(langtok.BANG_EQ, nil, binary, precEquality)
	set(langtok.EQ_EQ, nil, binary, precEquality)
	set(langtok.GT, nil, binary, precComparison)
	set(langtok.GT_EQ, nil, binary, precComparison)
	set(langtok.LT, nil, binary, precComparison)
	set(langtok.LE, nil, binary, precComparison)
	set(langtok.IDENT, variable, nil, precNone)
	set(langtok.STRING, stringLit, nil, precNone)
	set(langtok.NUMBER, number, nil, precNone)
	set(langtok.AND, nil, and_, precAnd)
	set(langtok.OR, nil, or_, precOr)
	set(langtok.FALSE, literal, nil, precNone)
	set(langtok.TRUE, literal, nil, precNone)
	set(langtok.NIL, literal, nil, precNone)
	set(langtok.THIS, this_, nil, precNone)
}

func number(p *parser, c *compiler, canAssign bool) {
	p.emitConstant(value.Number(p.prevVal.Number))
}

func stringLit(p *parser, c *compiler, canAssign bool) {
	s := p.alloc.InternString([]byte(p.prevVal.String))
	p.emitConstant(value.FromObject(s))
}

func literal(p *parser, c *compiler, canAssign bool) {
	switch p.previous {
	case langtok.FALSE:
		p.emitOp(FALSE)
	case langtok.TRUE:
		p.emitOp(TRUE)
	case langtok.NIL:
		p.emitOp(NIL)
	}
}

func grouping(p *parser, c *compiler, canAssign bool) {
	p.expression()
	p.consume(langtok.RPAREN, "expect ')' after expression")
}

func unary(p *parser, c *compiler, canAssign bool) {
	op := p.previous
	p.parsePrecedence(precUnary)
	switch op {
	case langtok.MINUS:
		p.emitOp(NEGATE)
	case langtok.BANG:
		p.emitOp(NOT)
	}
}

func binary(p *parser, c *compiler, canAssign bool) {
	op := p.previous
	rule := getRule(op)
	p.parsePrecedence(rule.prec + 1)
	switch op {
	case langtok.BANG_EQ:
		p.emitOps(EQUAL, NOT)
	case langtok.EQ_EQ:
		p.emitOp(EQUAL)
	case langtok.GT:
		p.emitOp(GREATER)
	case langtok.GT_EQ:
		p.emitOps(LESS, NOT)
	case langtok.LT:
		p.emitOp(LESS)
	case langtok.LE:
		p.emitOps(GREATER, NOT)
	case langtok.PLUS:
		p.emitOp(ADD)
	case langtok.MINUS:
		p.emitOp(SUBTRACT)
	case langtok.STAR:
		p.emitOp(MULTIPLY)
	case langtok.SLASH:
		p.emitOp(DIVIDE)
	}
}

func and_(p *parser, c *compiler, canAssign bool) {
	endJump := p.emitJump(JUMP_IF_FALSE)
	p.emitOp(POP)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func or_(p *parser, c *compiler, canAssign bool) {
	elseJump := p.emitJump(JUMP_IF_FALSE)
	endJump := p.emitJump(JUMP)
	p.patchJump(elseJump)
	p.emitOp(POP)
	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func call(p *parser, c *compiler, canAssign bool) {
	argc := p.argumentList()
	p.emitOp(CALL)
	p.emitByte(byte(argc))
}

func dot(p *parser, c *compiler, canAssign bool) {
	p.consume(langtok.IDENT, "expect property name after '.'")
	name := p.identifierConstant(p.prevVal.Raw)

	switch {
	case canAssign && p.match(langtok.EQ):
		p.expression()
		p.emitOp(SET_PROPERTY)
		p.emitByte(byte(name))
	case p.match(langtok.LPAREN):
		// spec.md's opcode set has no dedicated OP_INVOKE: a method call is
		// just a property load (which binds the method) immediately called.
		p.emitOp(GET_PROPERTY)
		p.emitByte(byte(name))
		argc := p.argumentList()
		p.emitOp(CALL)
		p.emitByte(byte(argc))
	default:
		p.emitOp(GET_PROPERTY)
		p.emitByte(byte(name))
	}
}

func this_(p *parser, c *compiler, canAssign bool) {
	if p.class == nil {
		p.error("can't use 'this' outside of a class")
		return
	}
	variableNamed(p, "this", false)
}

func variable(p *parser, c *compiler, canAssign bool) {
	variableNamed(p, p.prevVal.Raw, canAssign)
}

func variableNamed(p *parser, name string, canAssign bool) {
	var getOp, setOp Opcode
	arg := p.resolveLocal(p.cur, name)
	if arg != -1 {
		getOp, setOp = GET_LOCAL, SET_LOCAL
	} else if arg = p.resolveUpvalue(p.cur, name); arg != -1 {
		getOp, setOp = GET_UPVALUE, SET_UPVALUE
	} else {
		arg = p.identifierConstant(name)
		getOp, setOp = GET_GLOBAL, SET_GLOBAL
	}

	if canAssign && p.match(langtok.EQ) {
		p.expression()
		p.emitOp(setOp)
		p.emitByte(byte(arg))
	} else {
		p.emitOp(getOp)
		p.emitByte(byte(arg))
	}
}
