package dice

import (
	"fmt"
	"strconv"
	"strings"

	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
)

// Expression is a parsed "NdS + M" formula
type Expression struct {
	Count    int
	Sides    int
	Modifier int
}

// D20 builds the single-d20 attack expression with a flat modifier
func D20(modifier int) Expression {
	return Expression{Count: 1, Sides: 20, Modifier: modifier}
}

// String formats the expression the way chat shows it. The modifier is
// always printed, so a negative one reads "1d20 + -1".
func (e Expression) String() string {
	return fmt.Sprintf("%dd%d + %d", e.Count, e.Sides, e.Modifier)
}

// ParseExpression parses formulas such as "1d20", "2d6+3", "1d20 + -1"
// and "1d8 - 2". A missing count means one die.
func ParseExpression(formula string) (Expression, error) {
	compact := strings.ReplaceAll(strings.TrimSpace(formula), " ", "")
	if compact == "" {
		return Expression{}, sheeterr.InvalidArgument("dice formula is required")
	}

	dicePart, modPart, sign := compact, "", 1
	if i := strings.IndexAny(compact[1:], "+-"); i >= 0 {
		i++
		dicePart, modPart = compact[:i], compact[i+1:]
		if compact[i] == '-' {
			sign = -1
		}
	}

	count, sides, ok := strings.Cut(strings.ToLower(dicePart), "d")
	if !ok {
		return Expression{}, sheeterr.InvalidArgumentf("invalid dice formula %q", formula)
	}

	expr := Expression{Count: 1}
	var err error
	if count != "" {
		if expr.Count, err = strconv.Atoi(count); err != nil || expr.Count < 1 {
			return Expression{}, sheeterr.InvalidArgumentf("invalid dice count in %q", formula)
		}
	}
	if expr.Sides, err = strconv.Atoi(sides); err != nil || expr.Sides < 1 {
		return Expression{}, sheeterr.InvalidArgumentf("invalid dice size in %q", formula)
	}

	if modPart != "" {
		mod, err := strconv.Atoi(modPart)
		if err != nil {
			return Expression{}, sheeterr.InvalidArgumentf("invalid modifier in %q", formula)
		}
		expr.Modifier = sign * mod
	}

	return expr, nil
}

// Evaluate parses formula and rolls it with roller
func Evaluate(roller Roller, formula string) (*RollResult, error) {
	expr, err := ParseExpression(formula)
	if err != nil {
		return nil, err
	}
	return roller.Roll(expr.Count, expr.Sides, expr.Modifier)
}
