// Package hyper implements indirect network encodings: a CPPN queried over a
// geometric substrate (HyperNEAT) and a quadtree-grown evolvable substrate
// (ES-HyperNEAT).
package hyper

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Point is a 2-D substrate coordinate.
type Point struct {
	X, Y float64
}

// Substrate is a fixed geometric node layout. Inputs and Outputs are always
// present; Hidden is empty for the evolvable variant, which discovers its own
// hidden layout per genome.
type Substrate struct {
	Inputs   []Point
	Hidden   []Point
	Outputs  []Point
	Function string // Activation applied to substrate nodes.
}

// Validate checks that the substrate can wire the given environment arity.
func (s *Substrate) Validate(numInputs, numOutputs int) error {
	if len(s.Inputs) != numInputs {
		return fmt.Errorf("substrate has %d input coordinates, environment needs %d", len(s.Inputs), numInputs)
	}
	if len(s.Outputs) != numOutputs {
		return fmt.Errorf("substrate has %d output coordinates, environment needs %d", len(s.Outputs), numOutputs)
	}
	return nil
}

// ParsePoints parses a literal coordinate list of the form
// "[(-1.0, 0.5), (1, -1)]". Only numeric tuple literals are accepted; there
// is no expression evaluation.
func ParsePoints(s string) ([]Point, error) {
	p := &literalParser{input: s}
	points, err := p.parsePointList()
	if err != nil {
		return nil, fmt.Errorf("invalid coordinate list %q: %w", s, err)
	}
	return points, nil
}

// ParseStrings parses a literal string list of the form "['x', 'theta']".
// Both single and double quotes are accepted.
func ParseStrings(s string) ([]string, error) {
	p := &literalParser{input: s}
	names, err := p.parseStringList()
	if err != nil {
		return nil, fmt.Errorf("invalid name list %q: %w", s, err)
	}
	return names, nil
}

// literalParser is a minimal recursive-descent parser for the bracketed
// literal lists found in configuration files.
type literalParser struct {
	input string
	pos   int
}

func (p *literalParser) parsePointList() ([]Point, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}
	var points []Point
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return points, p.expectEnd()
	}
	for {
		pt, err := p.parsePoint()
		if err != nil {
			return nil, err
		}
		points = append(points, pt)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return points, p.expectEnd()
		default:
			return nil, fmt.Errorf("expected ',' or ']' at position %d", p.pos)
		}
	}
}

func (p *literalParser) parsePoint() (Point, error) {
	if err := p.expect('('); err != nil {
		return Point{}, err
	}
	x, err := p.parseNumber()
	if err != nil {
		return Point{}, err
	}
	if err := p.expect(','); err != nil {
		return Point{}, err
	}
	y, err := p.parseNumber()
	if err != nil {
		return Point{}, err
	}
	if err := p.expect(')'); err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

func (p *literalParser) parseNumber() (float64, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '+' || c == '-' || c == '.' || c == 'e' || c == 'E' || unicode.IsDigit(rune(c)) {
			p.pos++
			continue
		}
		break
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected number at position %d", start)
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", p.input[start:p.pos])
	}
	return v, nil
}

func (p *literalParser) parseStringList() ([]string, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}
	var names []string
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return names, p.expectEnd()
	}
	for {
		name, err := p.parseString()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return names, p.expectEnd()
		default:
			return nil, fmt.Errorf("expected ',' or ']' at position %d", p.pos)
		}
	}
}

func (p *literalParser) parseString() (string, error) {
	p.skipSpace()
	quote := p.peek()
	if quote != '\'' && quote != '"' {
		return "", fmt.Errorf("expected quoted string at position %d", p.pos)
	}
	p.pos++
	end := strings.IndexByte(p.input[p.pos:], quote)
	if end < 0 {
		return "", fmt.Errorf("unterminated string at position %d", p.pos)
	}
	s := p.input[p.pos : p.pos+end]
	p.pos += end + 1
	return s, nil
}

func (p *literalParser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != c {
		return fmt.Errorf("expected %q at position %d", string(c), p.pos)
	}
	p.pos++
	return nil
}

func (p *literalParser) expectEnd() error {
	p.skipSpace()
	if p.pos != len(p.input) {
		return fmt.Errorf("unexpected trailing input at position %d", p.pos)
	}
	return nil
}

func (p *literalParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}
