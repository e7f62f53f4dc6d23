package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// Parser implements a recursive descent parser for simfil queries.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence correctly.
type Parser struct {
	lexer   *Lexer
	current Token
	prev    Token
	arena   *types.NodeArena
	depth   int
	opts    CompileOptions
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: 100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		lexer: NewLexer(input),
		arena: types.NewNodeArena(),
		opts:  options,
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire query and returns the compiled Expression.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}

	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrParse, "Empty query")
	}

	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenEOF {
		return nil, p.error(types.ErrParse, fmt.Sprintf("Unexpected token: %s", p.current.Value))
	}

	return types.NewExpression(node, p.lexer.input, p.arena), nil
}

// Operator precedence table (binding power).
// Higher values bind more tightly.
var precedence = map[TokenType]int{
	TokenOr:           10, // or
	TokenAnd:          20, // and
	TokenEqual:        30, // == and =
	TokenNotEqual:     30, // !=
	TokenLess:         40, // <
	TokenLessEqual:    40, // <=
	TokenGreater:      40, // >
	TokenGreaterEqual: 40, // >=
	TokenShiftLeft:    50, // <<
	TokenShiftRight:   50, // >>
	TokenBitAnd:       50, // &
	TokenBitOr:        50, // |
	TokenBitXor:       50, // ^
	TokenPlus:         60, // +
	TokenMinus:        60, // -
	TokenStar:         70, // *
	TokenSlash:        70, // /
	TokenPercent:      70, // %
	TokenAs:           80, // as
	TokenQuestion:     100, // postfix ?
	TokenUnpack:       100, // postfix ...
	TokenBracketOpen:  110, // [
	TokenBraceOpen:    120, // {
	TokenDot:          130, // .
	TokenDotDot:       130, // ..
}

// precUnary is the binding power of prefix operators (not, -, ~, #, typeof).
const precUnary = 90

// getPrecedence returns the precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.current = p.lexer.Next()
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		return p.error(types.ErrParse, fmt.Sprintf("Expected %s but got %s", tt.String(), p.current.Type.String()))
	}
	p.advance()
	return nil
}

// error creates a parser error at the current token.
func (p *Parser) error(code types.ErrorCode, message string) error {
	return &types.Error{
		Code:     code,
		Message:  message,
		Position: p.current.Position,
		Token:    p.current.Value,
	}
}

// node allocates an AST node from the parser's arena.
func (p *Parser) node(tt types.NodeType, position int) *types.ASTNode {
	return p.arena.Alloc(tt, position)
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.opts.MaxDepth {
		return nil, p.error(types.ErrParse, "Query too deeply nested")
	}

	// Parse prefix expression (nud - null denotation)
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}

	return left, nil
}

// parsePrefix parses a prefix expression (nud - null denotation).
// These are expressions that don't require a left-hand side.
func (p *Parser) parsePrefix() (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenInt:
		return p.parseInt()
	case TokenFloat:
		return p.parseFloat()
	case TokenString:
		return p.parseString()
	case TokenRawString:
		return p.parseRawString()
	case TokenRegex:
		return p.parseRegexString()
	case TokenBool:
		return p.parseBool()
	case TokenNull:
		return p.parseNull()
	case TokenName:
		return p.parseName()
	case TokenSelf:
		p.advance()
		return p.node(types.NodeSelf, token.Position), nil
	case TokenStar:
		p.advance()
		return p.node(types.NodeWildcard, token.Position), nil
	case TokenDblStar:
		p.advance()
		return p.node(types.NodeDescend, token.Position), nil
	case TokenDotDot:
		// Leading recursive descent applies to the evaluation context.
		return p.parseDescendPrefix()
	case TokenMinus:
		return p.parseUnary("-")
	case TokenBitNot:
		return p.parseUnary("~")
	case TokenHash:
		return p.parseUnary("#")
	case TokenNot:
		return p.parseUnary("not")
	case TokenTypeof:
		return p.parseUnary("typeof")
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenBracketOpen:
		// Leading subscript applies to the evaluation context.
		return p.parseSubscript(p.node(types.NodeSelf, token.Position))
	case TokenBraceOpen:
		// Leading sub-select applies to the evaluation context.
		return p.parseSubSelect(p.node(types.NodeSelf, token.Position))
	case TokenError:
		return nil, p.lexer.Error()
	default:
		return nil, p.error(types.ErrParse, fmt.Sprintf("Unexpected token: %s", token.Type.String()))
	}
}

// parseInfix parses an infix expression (led - left denotation).
// These are expressions that require a left-hand side.
func (p *Parser) parseInfix(left *types.ASTNode) (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenDot:
		return p.parsePathDot(left)
	case TokenDotDot:
		return p.parsePathDescend(left)
	case TokenBracketOpen:
		return p.parseSubscript(left)
	case TokenBraceOpen:
		return p.parseSubSelect(left)
	case TokenQuestion:
		p.advance()
		n := p.node(types.NodeUnary, token.Position)
		n.StrValue = "?"
		n.LHS = left
		return n, nil
	case TokenUnpack:
		p.advance()
		n := p.node(types.NodeUnary, token.Position)
		n.StrValue = "..."
		n.LHS = left
		return n, nil
	case TokenAs:
		return p.parseCast(left)
	case TokenAnd:
		return p.parseLogical(left, types.NodeAnd)
	case TokenOr:
		return p.parseLogical(left, types.NodeOr)
	case TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent,
		TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual,
		TokenGreater, TokenGreaterEqual, TokenShiftLeft, TokenShiftRight,
		TokenBitAnd, TokenBitOr, TokenBitXor:
		return p.parseBinaryOp(left)
	default:
		return nil, p.error(types.ErrParse, fmt.Sprintf("Unexpected infix token: %s", token.Type.String()))
	}
}

// Literals

func (p *Parser) parseInt() (*types.ASTNode, error) {
	token := p.current

	s, base := token.Value, 10
	if len(s) > 2 {
		switch s[:2] {
		case "0x", "0X":
			s, base = s[2:], 16
		case "0b", "0B":
			s, base = s[2:], 2
		}
	}
	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return nil, p.error(types.ErrParse, fmt.Sprintf("Invalid integer literal: %s", token.Value))
	}

	p.advance()
	n := p.node(types.NodeLiteral, token.Position)
	n.Val = types.IntVal(v)
	return n, nil
}

func (p *Parser) parseFloat() (*types.ASTNode, error) {
	token := p.current

	v, err := strconv.ParseFloat(token.Value, 64)
	if err != nil {
		return nil, p.error(types.ErrParse, fmt.Sprintf("Invalid float literal: %s", token.Value))
	}

	p.advance()
	n := p.node(types.NodeLiteral, token.Position)
	n.Val = types.FloatVal(v)
	return n, nil
}

func (p *Parser) parseString() (*types.ASTNode, error) {
	token := p.current

	s, err := unescapeString(token.Value)
	if err != nil {
		return nil, p.error(types.ErrParse, err.Error())
	}

	p.advance()
	n := p.node(types.NodeLiteral, token.Position)
	n.Val = types.StrVal(s)
	return n, nil
}

// parseRawString parses an r'...' literal. The token value is taken
// verbatim, backslashes included.
func (p *Parser) parseRawString() (*types.ASTNode, error) {
	token := p.current
	p.advance()
	n := p.node(types.NodeLiteral, token.Position)
	n.Val = types.StrVal(token.Value)
	return n, nil
}

// parseRegexString parses a re'...' literal. The pattern is validated at
// parse time and carried as a plain string; matches() compiles it again
// through its pattern cache.
func (p *Parser) parseRegexString() (*types.ASTNode, error) {
	token := p.current

	if _, err := regexp.Compile(token.Value); err != nil {
		return nil, p.error(types.ErrParse, fmt.Sprintf("Invalid regular expression: %v", err))
	}

	p.advance()
	n := p.node(types.NodeLiteral, token.Position)
	n.Val = types.StrVal(token.Value)
	return n, nil
}

func (p *Parser) parseBool() (*types.ASTNode, error) {
	token := p.current
	p.advance()
	n := p.node(types.NodeLiteral, token.Position)
	n.Val = types.BoolVal(token.Value == "true")
	return n, nil
}

func (p *Parser) parseNull() (*types.ASTNode, error) {
	token := p.current
	p.advance()
	n := p.node(types.NodeLiteral, token.Position)
	n.Val = types.Null()
	return n, nil
}

// parseName parses a field access or, when followed by an opening
// parenthesis, a function call.
func (p *Parser) parseName() (*types.ASTNode, error) {
	token := p.current
	p.advance()

	if p.current.Type == TokenParenOpen {
		return p.parseCall(token)
	}

	n := p.node(types.NodeField, token.Position)
	n.StrValue = token.Value
	return n, nil
}

// parseCall parses the argument list of a function call. The name token
// has already been consumed; the current token is the open parenthesis.
func (p *Parser) parseCall(name Token) (*types.ASTNode, error) {
	p.advance() // consume (

	n := p.node(types.NodeCall, name.Position)
	n.StrValue = name.Value

	if p.current.Type != TokenParenClose {
		for {
			arg, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			n.Arguments = append(n.Arguments, arg)
			if p.current.Type != TokenComma {
				break
			}
			p.advance()
		}
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseUnary(op string) (*types.ASTNode, error) {
	token := p.current
	p.advance()

	operand, err := p.parseExpression(precUnary)
	if err != nil {
		return nil, err
	}

	n := p.node(types.NodeUnary, token.Position)
	n.StrValue = op
	n.LHS = operand
	return n, nil
}

func (p *Parser) parseGrouping() (*types.ASTNode, error) {
	p.advance() // consume (

	n, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseBinaryOp(left *types.ASTNode) (*types.ASTNode, error) {
	token := p.current
	prec := p.getPrecedence(token.Type)
	p.advance()

	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}

	n := p.node(types.NodeBinary, token.Position)
	n.StrValue = binaryOpName(token)
	n.LHS = left
	n.RHS = right
	return n, nil
}

// binaryOpName normalizes operator spelling; "=" dumps as "==".
func binaryOpName(token Token) string {
	if token.Type == TokenEqual {
		return "=="
	}
	return token.Type.String()
}

func (p *Parser) parseLogical(left *types.ASTNode, tt types.NodeType) (*types.ASTNode, error) {
	token := p.current
	prec := p.getPrecedence(token.Type)
	p.advance()

	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}

	n := p.node(tt, token.Position)
	n.LHS = left
	n.RHS = right
	return n, nil
}

// castTargets are the types accepted on the right of the as operator.
var castTargets = map[string]bool{
	"bool":   true,
	"int":    true,
	"float":  true,
	"string": true,
	"null":   true,
}

func (p *Parser) parseCast(left *types.ASTNode) (*types.ASTNode, error) {
	token := p.current
	p.advance() // consume as

	target := strings.ToLower(p.current.Value)
	if (p.current.Type != TokenName && p.current.Type != TokenNull) || !castTargets[target] {
		return nil, p.error(types.ErrParse, fmt.Sprintf("Invalid cast target: %s", p.current.Value))
	}
	p.advance()

	n := p.node(types.NodeUnary, token.Position)
	n.StrValue = "as-" + target
	n.LHS = left
	return n, nil
}

// Path folding.
//
// Each of the path-forming infix operators (".", "..", "[", "{")
// appends a step to the left operand's path node, creating it if the
// left operand is not a path yet.

// asPath wraps left into a path node, or returns it as-is when it
// already is one.
func (p *Parser) asPath(left *types.ASTNode) *types.ASTNode {
	if left.Type == types.NodePath {
		return left
	}
	n := p.node(types.NodePath, left.Position)
	n.Steps = append(n.Steps, left)
	return n
}

func (p *Parser) parsePathDot(left *types.ASTNode) (*types.ASTNode, error) {
	path := p.asPath(left)
	p.advance() // consume .

	step, err := p.parsePathStep()
	if err != nil {
		return nil, err
	}
	path.Steps = append(path.Steps, step)
	return path, nil
}

// parsePathDescend handles the ".." operator: a recursive descent step
// followed by the step it selects from the descendants.
func (p *Parser) parsePathDescend(left *types.ASTNode) (*types.ASTNode, error) {
	path := p.asPath(left)
	token := p.current
	p.advance() // consume ..

	path.Steps = append(path.Steps, p.node(types.NodeDescend, token.Position))

	if p.canStartPathStep() {
		step, err := p.parsePathStep()
		if err != nil {
			return nil, err
		}
		path.Steps = append(path.Steps, step)
	}
	return path, nil
}

func (p *Parser) parseDescendPrefix() (*types.ASTNode, error) {
	token := p.current
	p.advance() // consume ..

	path := p.node(types.NodePath, token.Position)
	path.Steps = append(path.Steps, p.node(types.NodeDescend, token.Position))

	if p.canStartPathStep() {
		step, err := p.parsePathStep()
		if err != nil {
			return nil, err
		}
		path.Steps = append(path.Steps, step)
	}
	return path, nil
}

// canStartPathStep reports whether the current token can begin a path
// step after "." or "..".
func (p *Parser) canStartPathStep() bool {
	switch p.current.Type {
	case TokenName, TokenStar, TokenDblStar, TokenSelf,
		TokenAnd, TokenOr, TokenNot, TokenTypeof, TokenAs:
		return true
	default:
		return false
	}
}

// parsePathStep parses a single step after "." or "..": a field name, a
// wildcard, a recursive descent, the context reference, or a call
// applied to each value of the current scope. Keywords are allowed as
// field names here.
func (p *Parser) parsePathStep() (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenName:
		return p.parseName()
	case TokenAnd, TokenOr, TokenNot, TokenTypeof, TokenAs:
		p.advance()
		n := p.node(types.NodeField, token.Position)
		n.StrValue = token.Value
		return n, nil
	case TokenStar:
		p.advance()
		return p.node(types.NodeWildcard, token.Position), nil
	case TokenDblStar:
		p.advance()
		return p.node(types.NodeDescend, token.Position), nil
	case TokenSelf:
		p.advance()
		return p.node(types.NodeSelf, token.Position), nil
	default:
		return nil, p.error(types.ErrParse, fmt.Sprintf("Expected field after '.' but got %s", token.Type.String()))
	}
}

// parseSubscript parses "[...]" applied to left: an index expression, a
// slice, a wildcard, a filter ("[?cond]") or a union ("[e1, e2]").
func (p *Parser) parseSubscript(left *types.ASTNode) (*types.ASTNode, error) {
	path := p.asPath(left)
	token := p.current
	p.advance() // consume [

	step, err := p.parseSubscriptBody(token.Position)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}

	path.Steps = append(path.Steps, step)
	return path, nil
}

func (p *Parser) parseSubscriptBody(position int) (*types.ASTNode, error) {
	// Filter form: [?cond]
	if p.current.Type == TokenQuestion {
		p.advance()
		cond, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		n := p.node(types.NodeFilter, position)
		n.LHS = cond
		return n, nil
	}

	// Slice with omitted start: [:end] or [:end:step] or [:]
	if p.current.Type == TokenColon {
		return p.parseSliceBody(position, nil)
	}

	first, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	switch p.current.Type {
	case TokenColon:
		return p.parseSliceBody(position, first)

	case TokenComma:
		n := p.node(types.NodeUnion, position)
		n.Arguments = append(n.Arguments, first)
		for p.current.Type == TokenComma {
			p.advance()
			sub, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			n.Arguments = append(n.Arguments, sub)
		}
		return n, nil

	default:
		// A bare wildcard subscript selects all children.
		if first.Type == types.NodeWildcard {
			return first, nil
		}
		n := p.node(types.NodeIndex, position)
		n.LHS = first
		return n, nil
	}
}

// parseSliceBody parses the remainder of a slice subscript after the
// optional start expression. The current token is the first colon.
func (p *Parser) parseSliceBody(position int, start *types.ASTNode) (*types.ASTNode, error) {
	n := p.node(types.NodeSlice, position)
	n.Start = start

	p.advance() // consume :
	if p.current.Type != TokenColon && p.current.Type != TokenBracketClose {
		end, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		n.End = end
	}

	if p.current.Type == TokenColon {
		p.advance()
		if p.current.Type != TokenBracketClose {
			step, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			n.Step = step
		}
	}

	return n, nil
}

// parseSubSelect parses "{cond}" applied to left, the filter form
// inherited from the original sub-select syntax.
func (p *Parser) parseSubSelect(left *types.ASTNode) (*types.ASTNode, error) {
	path := p.asPath(left)
	token := p.current
	p.advance() // consume {

	cond, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}

	n := p.node(types.NodeFilter, token.Position)
	n.LHS = cond
	path.Steps = append(path.Steps, n)
	return path, nil
}

// unescapeString processes escape sequences in a string literal.
func unescapeString(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil // Fast path: no escapes
	}

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			result.WriteByte(s[i])
			continue
		}

		i++ // Skip backslash
		if i >= len(s) {
			return "", fmt.Errorf("Invalid escape sequence at end of string")
		}

		switch s[i] {
		case 'n':
			result.WriteByte('\n')
		case 't':
			result.WriteByte('\t')
		case 'r':
			result.WriteByte('\r')
		case 'b':
			result.WriteByte('\b')
		case 'f':
			result.WriteByte('\f')
		case 'v':
			result.WriteByte('\v')
		case '0':
			result.WriteByte(0)
		case '\\':
			result.WriteByte('\\')
		case '"':
			result.WriteByte('"')
		case '\'':
			result.WriteByte('\'')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("Invalid unicode escape sequence")
			}
			code, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", fmt.Errorf("Invalid unicode escape sequence: \\u%s", s[i+1:i+5])
			}
			result.WriteRune(rune(code))
			i += 4
		default:
			return "", fmt.Errorf("Unsupported escape sequence: \\%c", s[i])
		}
	}

	return result.String(), nil
}
