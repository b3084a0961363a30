package taskrabbit

import (
	"fmt"
	"strings"

	"taskrabbit-scraper/models"
)

// Card containers, most specific first. The first expression with any
// match wins.
var cardXPaths = []string{
	"//div[@data-testid='tasker-card-mobile']",
	"//div[contains(@class, 'mui-1m4n54b')]",
	"//div[contains(@data-testid, 'tasker-card')]",
}

// Name elements inside a card, in priority order.
var nameSelectors = []string{
	"button.mui-1pbxn54",
	"button.TRTextButtonPrimary-Root",
	"span.mui-5xjf89",
	"h3",
}

var startBookingXPaths = []string{
	"//button[contains(text(), 'Get Started')]",
	"//button[contains(text(), 'Start Booking')]",
	"//a[contains(text(), 'Get Started')]",
	"//a[contains(text(), 'Start Booking')]",
	"//button[contains(text(), 'Book Now')]",
	"//a[contains(text(), 'Book Now')]",
}

var addressInputXPaths = []string{
	"//input[@placeholder='Street address']",
	"//input[@name='address']",
	"//input[contains(@id, 'address')]",
	"//input[contains(@placeholder, 'address')]",
	"//input[contains(@class, 'address')]",
	"//input[contains(@placeholder, 'location')]",
	"//input[contains(@name, 'location')]",
}

var addressSuggestionXPaths = []string{
	"//*[@role='listbox']//*[@role='option']",
	"//li[@role='option']",
	"//div[contains(@class, 'pac-item')]",
	"//*[contains(@id, 'suggestion')]",
}

var continueXPaths = []string{
	"//button[contains(., 'Continue')]",
	"//a[contains(., 'Continue')]",
	"//button[contains(., 'Next')]",
	"//button[@type='submit']",
	"//input[@type='submit']",
}

var taskDetailsXPaths = []string{
	"//textarea[contains(@placeholder, 'details')]",
	"//textarea[contains(@placeholder, 'task')]",
	"//textarea[contains(@placeholder, 'Tell us')]",
	"//textarea[contains(@name, 'details')]",
	"//textarea[contains(@id, 'details')]",
	"//textarea",
}

// Text that identifies the question a choice control belongs to.
var questionXPaths = map[models.OptionKind][]string{
	models.OptionFurnitureType: {
		"//*[contains(text(), 'type of furniture')]",
		"//*[contains(text(), 'IKEA')]",
	},
	models.OptionSize: {
		"//*[contains(text(), 'How big is your task')]",
		"//*[contains(text(), 'Est.')]",
	},
	models.OptionVehicleRequirements: {
		"//*[contains(text(), 'vehicle')]",
		"//*[contains(text(), 'Vehicle')]",
	},
}

// Overlays removed outright: modal iframes and their wrappers.
var overlayRemoveXPaths = []string{
	"//iframe[contains(@aria-label, 'Modal Overlay')]",
	"//iframe[contains(@aria-label, 'Modal')]",
	"//iframe[contains(@id, 'lightbox') or contains(@class, 'lightbox')]",
	"//iframe[contains(@id, 'modal') or contains(@class, 'modal')]",
	"//div[contains(@class, 'box-') and .//iframe]",
	"//div[contains(@class, 'fb_lightbox-overlay')]",
	"//div[contains(@id, 'sidebar-overlay-lightbox')]",
}

// Close controls clicked when visible.
var overlayCloseXPaths = []string{
	"//button[contains(@aria-label, 'close')]",
	"//button[contains(@aria-label, 'Close')]",
	"//button[contains(@class, 'close')]",
	"//button[text()='×']",
	"//button[text()='X']",
	"//span[text()='×']",
	"//a[contains(@class, 'close')]",
}

// Blocking overlays that must be gone before the flow continues.
var overlayBlockingXPaths = []string{
	"//*[@role='dialog' and @aria-modal='true']",
	"//iframe[contains(@aria-label, 'Modal Overlay')]",
}

// choiceXPaths locates a selectable choice whose text contains value.
func choiceXPaths(value string) []string {
	v := xpathLiteral(value)
	return []string{
		fmt.Sprintf("//button[contains(normalize-space(.), %s)]", v),
		fmt.Sprintf("//label[contains(normalize-space(.), %s)]", v),
		fmt.Sprintf("//*[@role='radio' and contains(normalize-space(.), %s)]", v),
		fmt.Sprintf("//input[@type='radio']/following-sibling::*[contains(normalize-space(.), %s)]", v),
		fmt.Sprintf("//div[contains(text(), %s)]", v),
		fmt.Sprintf("//span[contains(text(), %s)]", v),
	}
}

// labelXPaths locates a button or link by its visible text.
func labelXPaths(label string) []string {
	v := xpathLiteral(label)
	return []string{
		fmt.Sprintf("//button[contains(normalize-space(.), %s)]", v),
		fmt.Sprintf("//a[contains(normalize-space(.), %s)]", v),
	}
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no
// escape sequences, so values holding both quote kinds become concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
