package calc

import (
	"fmt"
	"strings"

	"github.com/thesyncim/calctest/pkg/calc/driver"
)

// The calculator's DOM contract. These paths follow the markup the page
// renders; the page is not owned by this repository.
const (
	// PageTitle is the document title of the calculator.
	PageTitle = "Factorio Calculator"

	// DropdownOpenHeight is the clientHeight of an item picker once expanded.
	DropdownOpenHeight = 313

	xpDisplayCount   = "//*[@id='display_count']"
	xpSettingsButton = "//*[@id='settings_button']"
	xpTotalsButton   = "//*[@id='totals_button']"
	xpTargets        = "//*[@id='targets']"
	xpTargetChildren = xpTargets + "/*"
	xpAddTarget      = xpTargets + "/li[last()]/button"
	xpTotalsRows     = "//*[@id='totals']/tr[position() > 1]"
)

// xpathLiteral quotes s for use inside an XPath expression.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}

func xpSettingDropdown(id string) string {
	return fmt.Sprintf("//span[@id=%s]/div", xpathLiteral(id))
}

func xpSettingOption(id string, n int) string {
	return fmt.Sprintf("%s/label[%d]/img", xpSettingDropdown(id), n)
}

func xpTargetRow(i int) string {
	return fmt.Sprintf("%s/li[%d]", xpTargets, i)
}

func xpTargetButton(i int) string {
	return xpTargetRow(i) + "/button"
}

func xpTargetDropdown(i int) string {
	return xpTargetRow(i) + "/div[contains(@class, 'dropdown')]"
}

func xpTargetItem(i int, item string) string {
	return fmt.Sprintf("%s/label/img[@alt=%s]", xpTargetDropdown(i), xpathLiteral(item))
}

func xpTargetInput(i int, kind RateKind) string {
	return fmt.Sprintf("%s/input[%d]", xpTargetRow(i), kind.inputIndex())
}

func xpTotalsRow(n int) string {
	return fmt.Sprintf("(%s)[%d]", xpTotalsRows, n)
}

func xpTotalsItem(n int) string {
	return xpTotalsRow(n) + "/td[1]/img"
}

func xpTotalsRate(n int) string {
	return xpTotalsRow(n) + "/td[2]/tt"
}

// jsClientHeight evaluates to the clientHeight of the node at xpath.
func jsClientHeight(xpath string) string {
	return driver.NodeExpr(xpath) + ".clientHeight"
}

// jsScrollTo scrolls container so that child sits at its top edge.
func jsScrollTo(container, child string) string {
	return fmt.Sprintf(`(() => {
	const c = %s;
	const n = %s;
	c.scrollTop = n.offsetTop;
	return c.scrollTop;
})()`, driver.NodeExpr(container), driver.NodeExpr(child))
}
