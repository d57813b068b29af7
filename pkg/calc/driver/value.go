package driver

import (
	"encoding/json"
	"fmt"
	"math"
)

// NodeExpr returns a JavaScript expression that evaluates to the first node
// matching xpath, or null.
func NodeExpr(xpath string) string {
	q, _ := json.Marshal(xpath)
	return fmt.Sprintf(
		"document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue",
		q)
}

// CountExpr returns a JavaScript expression that evaluates to the number of
// nodes matching xpath.
func CountExpr(xpath string) string {
	q, _ := json.Marshal(xpath)
	return fmt.Sprintf(
		"document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength",
		q)
}

// ToInt converts a numeric Eval result to int. Engines decode JSON numbers
// differently, so all integer and float shapes are accepted.
func ToInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float32:
		return int(math.Round(float64(n))), nil
	case float64:
		return int(math.Round(n)), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return int(math.Round(f)), nil
	case nil:
		return 0, fmt.Errorf("expected number, got null")
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
