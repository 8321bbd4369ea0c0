package compiler

import (
	langtok "github.com/mna/glox/lang/token"
	"github.com/mna/glox/lang/value"
)

func (p *parser) declaration() {
	switch {
	case p.match(langtok.CLASS):
		p.classDeclaration()
	case p.match(langtok.FUN):
		p.funDeclaration()
	case p.match(langtok.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *parser) statement() {
	switch {
	case p.match(langtok.PRINT):
		p.printStatement()
	case p.match(langtok.IF):
		p.ifStatement()
	case p.match(langtok.RETURN):
		p.returnStatement()
	case p.match(langtok.WHILE):
		p.whileStatement()
	case p.match(langtok.FOR):
		p.forStatement()
	case p.match(langtok.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) block() {
	for !p.check(langtok.RBRACE) && !p.check(langtok.EOF) {
		p.declaration()
	}
	p.consume(langtok.RBRACE, "expect '}' after block")
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(langtok.SEMI, "expect ';' after value")
	p.emitOp(PRINT)
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(langtok.SEMI, "expect ';' after expression")
	p.emitOp(POP)
}

func (p *parser) varDeclaration() {
	global := p.parseVariable("expect variable name")
	if p.match(langtok.EQ) {
		p.expression()
	} else {
		p.emitOp(NIL)
	}
	p.consume(langtok.SEMI, "expect ';' after variable declaration")
	p.defineVariable(global)
}

func (p *parser) ifStatement() {
	p.consume(langtok.LPAREN, "expect '(' after 'if'")
	p.expression()
	p.consume(langtok.RPAREN, "expect ')' after condition")

	thenJump := p.emitJump(JUMP_IF_FALSE)
	p.emitOp(POP)
	p.statement()

	elseJump := p.emitJump(JUMP)
	p.patchJump(thenJump)
	p.emitOp(POP)

	if p.match(langtok.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *parser) whileStatement() {
	loopStart := len(p.chunk().Code)
	p.consume(langtok.LPAREN, "expect '(' after 'while'")
	p.expression()
	p.consume(langtok.RPAREN, "expect ')' after condition")

	exitJump := p.emitJump(JUMP_IF_FALSE)
	p.emitOp(POP)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(POP)
}

func (p *parser) forStatement() {
	p.beginScope()
	p.consume(langtok.LPAREN, "expect '(' after 'for'")

	switch {
	case p.match(langtok.SEMI):
		// no initializer
	case p.match(langtok.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.chunk().Code)
	exitJump := -1
	if !p.match(langtok.SEMI) {
		p.expression()
		p.consume(langtok.SEMI, "expect ';' after loop condition")
		exitJump = p.emitJump(JUMP_IF_FALSE)
		p.emitOp(POP)
	}

	if !p.match(langtok.RPAREN) {
		bodyJump := p.emitJump(JUMP)
		incrStart := len(p.chunk().Code)
		p.expression()
		p.emitOp(POP)
		p.consume(langtok.RPAREN, "expect ')' after for clauses")

		p.emitLoop(loopStart)
		loopStart = incrStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(POP)
	}
	p.endScope()
}

func (p *parser) returnStatement() {
	if p.cur.fnType == value.TypeScript {
		p.error("can't return from top-level code")
	}
	if p.match(langtok.SEMI) {
		p.emitReturn()
		return
	}
	if p.cur.fnType == value.TypeInitializer {
		p.error("can't return a value from an initializer")
	}
	p.expression()
	p.consume(langtok.SEMI, "expect ';' after return value")
	p.emitOp(RETURN)
}

// --- functions and classes --------------------------------------------

func (p *parser) funDeclaration() {
	global := p.parseVariable("expect function name")
	p.markInitialized()
	p.function(value.TypeFunction, p.prevVal.Raw)
	p.defineVariable(global)
}

// function compiles the parameter list and body of a function/method body
// into its own Function object, then emits OP_CLOSURE (followed by one
// (is_local, index) descriptor pair per upvalue) in the enclosing chunk,
// per spec.md §4.2 and §4.3.
func (p *parser) function(fnType value.FunctionType, name string) {
	p.cur = newCompiler(p.alloc, p.cur, fnType, name)
	p.alloc.PushRoot(value.FromObject(p.cur.fn))
	p.beginScope()

	p.consume(langtok.LPAREN, "expect '(' after function name")
	if !p.check(langtok.RPAREN) {
		for {
			p.cur.fn.Arity++
			if p.cur.fn.Arity > 255 {
				p.errorAtCurrent("can't have more than 255 parameters")
			}
			paramConst := p.parseVariable("expect parameter name")
			p.defineVariable(paramConst)
			if !p.match(langtok.COMMA) {
				break
			}
		}
	}
	p.consume(langtok.RPAREN, "expect ')' after parameters")
	p.consume(langtok.LBRACE, "expect '{' before function body")
	p.block()

	// capture the child compiler's upvalue list before endCompiler pops it
	// back to the enclosing one.
	upvalues := p.cur.upvalues
	fn := p.endCompiler()
	p.alloc.PopRoot()

	idx := p.makeConstant(value.FromObject(fn))
	p.emitOp(CLOSURE)
	p.emitByte(byte(idx))
	for _, uv := range upvalues {
		if uv.isLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(uv.index)
	}
}

func (p *parser) method() {
	p.consume(langtok.IDENT, "expect method name")
	name := p.prevVal.Raw
	nameConst := p.identifierConstant(name)

	fnType := value.TypeMethod
	if name == "init" {
		fnType = value.TypeInitializer
	}
	p.function(fnType, name)
	p.emitOp(METHOD)
	p.emitByte(byte(nameConst))
}

func (p *parser) classDeclaration() {
	p.consume(langtok.IDENT, "expect class name")
	name := p.prevVal.Raw
	nameConst := p.identifierConstant(name)
	p.declareVariable(name)

	p.emitOp(CLASS)
	p.emitByte(byte(nameConst))
	p.defineVariable(nameConst)

	p.class = &classCompiler{enclosing: p.class}

	variableNamed(p, name, false)
	p.consume(langtok.LBRACE, "expect '{' before class body")
	for !p.check(langtok.RBRACE) && !p.check(langtok.EOF) {
		p.method()
	}
	p.consume(langtok.RBRACE, "expect '}' after class body")
	p.emitOp(POP)

	p.class = p.class.enclosing
}
