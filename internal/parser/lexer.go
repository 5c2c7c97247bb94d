package parser

import (
	"strings"

	"github.com/zhaobenny/babylog/internal/model"
)

// Shape tags what a lexed token carries
type Shape int

const (
	Unrecognized Shape = iota
	TimeOnly
	TimeWithDuration
	TimeWithVolume
	TimeWithNote
)

func (s Shape) String() string {
	switch s {
	case TimeOnly:
		return "time"
	case TimeWithDuration:
		return "time+duration"
	case TimeWithVolume:
		return "time+volume"
	case TimeWithNote:
		return "time+note"
	}
	return "unrecognized"
}

// Lexeme is one token lexed under a category grammar. Fields beyond
// Shape and Time are only meaningful for the shapes that carry them;
// a TimeWithDuration lexeme may still carry a Note.
type Lexeme struct {
	Shape    Shape
	Time     model.TimeOfDay
	Left     *int
	Right    *int
	AmountML int
	Note     string
	Reason   string
}

// Duration returns the summed side durations, nil when neither side was written
func (lx Lexeme) Duration() *int {
	if lx.Left == nil && lx.Right == nil {
		return nil
	}
	total := 0
	if lx.Left != nil {
		total += *lx.Left
	}
	if lx.Right != nil {
		total += *lx.Right
	}
	return &total
}

func unrecognized(reason string) Lexeme {
	return Lexeme{Shape: Unrecognized, Reason: reason}
}

const (
	maxSideDigits   = 3
	maxAmountDigits = 4
)

// lexer walks a single token left to right
type lexer struct {
	buf string
}

func newLexer(token string) *lexer {
	return &lexer{buf: strings.TrimSpace(token)}
}

func (l *lexer) eat(n int) string {
	s := l.buf[:n]
	l.buf = l.buf[n:]
	return s
}

// digits returns the length of the leading digit run, at most max
func (l *lexer) digits(from, max int) int {
	n := 0
	for from+n < len(l.buf) && n < max && isDigit(l.buf[from+n]) {
		n++
	}
	return n
}

// time consumes the time prefix: one or two digits, optionally followed
// by a colon and exactly two digits, and resolves it with ParseTime.
func (l *lexer) time() (model.TimeOfDay, string) {
	n := l.digits(0, 2)
	if n == 0 {
		return model.TimeOfDay{}, "missing time"
	}
	if len(l.buf) >= n+3 && l.buf[n] == ':' && l.digits(n+1, 2) == 2 {
		n += 3
	}
	text := l.eat(n)
	t, ok := ParseTime(text)
	if !ok {
		return model.TimeOfDay{}, "invalid time " + text
	}
	return t, ""
}

// side consumes an L or R part if one is next and that side is still unset
func (l *lexer) side(lx *Lexeme) bool {
	if len(l.buf) < 2 {
		return false
	}
	var dst **int
	switch l.buf[0] {
	case 'L':
		dst = &lx.Left
	case 'R':
		dst = &lx.Right
	default:
		return false
	}
	if *dst != nil {
		return false
	}
	n := l.digits(1, maxSideDigits)
	if n == 0 {
		return false
	}
	minutes := atoi(l.eat(1 + n)[1:])
	*dst = &minutes
	return true
}

func (l *lexer) rest() string {
	rest := strings.TrimSpace(l.buf)
	l.buf = ""
	return rest
}

// lexBreast lexes `<time>(L<n>)?(R<n>)?<trailing>`; L and R may come in either order
func lexBreast(token string) Lexeme {
	l := newLexer(token)
	t, reason := l.time()
	if reason != "" {
		return unrecognized(reason)
	}

	lx := Lexeme{Shape: TimeOnly, Time: t}
	for l.side(&lx) {
	}
	lx.Note = l.rest()

	switch {
	case lx.Left != nil || lx.Right != nil:
		lx.Shape = TimeWithDuration
	case lx.Note != "":
		lx.Shape = TimeWithNote
	}
	return lx
}

// lexVolume lexes `<time>-<amount>` and nothing else
func lexVolume(token string) Lexeme {
	l := newLexer(token)
	t, reason := l.time()
	if reason != "" {
		return unrecognized(reason)
	}
	if !strings.HasPrefix(l.buf, "-") {
		return unrecognized("missing '-' before amount")
	}
	l.eat(1)

	n := l.digits(0, maxAmountDigits)
	if n == 0 {
		return unrecognized("missing amount")
	}
	amount := atoi(l.eat(n))
	if l.buf != "" {
		return unrecognized("amount is not a 1-4 digit number")
	}
	if amount <= 0 {
		return unrecognized("amount must be positive")
	}
	return Lexeme{Shape: TimeWithVolume, Time: t, AmountML: amount}
}

// lexDiaper lexes `<time><trailing>`; trailing text is kept as the note
func lexDiaper(token string) Lexeme {
	l := newLexer(token)
	t, reason := l.time()
	if reason != "" {
		return unrecognized(reason)
	}
	lx := Lexeme{Shape: TimeOnly, Time: t, Note: l.rest()}
	if lx.Note != "" {
		lx.Shape = TimeWithNote
	}
	return lx
}
