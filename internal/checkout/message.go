package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

const divider = "━━━━━━━━━━━━━━━"

type messageText struct {
	title, details, total, customer, name, phone, notes, currency string
}

var messages = map[string]messageText{
	models.LangAR: {
		title:    "🛒 *طلب جديد من الصحابه*",
		details:  "📋 *تفاصيل الطلب:*",
		total:    "💰 *الإجمالي: %s %s*",
		customer: "👤 *بيانات العميل:*",
		name:     "الاسم",
		phone:    "الهاتف",
		notes:    "العنوان/ملاحظات",
		currency: "جنيه",
	},
	models.LangEN: {
		title:    "🛒 *New Order from Al-Sahaba*",
		details:  "📋 *Order Details:*",
		total:    "💰 *Total: %s %s*",
		customer: "👤 *Customer Info:*",
		name:     "Name",
		phone:    "Phone",
		notes:    "Address/Notes",
		currency: "EGP",
	},
}

// BuildMessage renders the plain-text order summary handed to the messaging
// channel, in lang (Arabic when lang is unknown).
func BuildMessage(items []models.OrderItem, total decimal.Decimal, customer models.Customer, lang string) string {
	text, ok := messages[lang]
	if !ok {
		text = messages[models.DefaultLang]
	}

	var b strings.Builder
	b.WriteString(text.title + "\n")
	b.WriteString(divider + "\n\n")
	b.WriteString(text.details + "\n")
	for _, item := range items {
		fmt.Fprintf(&b, "• %s × %d = %s %s\n", item.Name, item.Quantity, item.Subtotal().String(), text.currency)
	}
	b.WriteString("\n" + divider + "\n")
	b.WriteString(fmt.Sprintf(text.total, total.String(), text.currency) + "\n\n")
	b.WriteString(text.customer + "\n")
	fmt.Fprintf(&b, "%s: %s\n", text.name, customer.Name)
	if customer.Phone != "" {
		fmt.Fprintf(&b, "%s: %s\n", text.phone, customer.Phone)
	}
	if customer.Address != "" {
		fmt.Fprintf(&b, "%s: %s\n", text.notes, customer.Address)
	}
	return b.String()
}

// HandoffURL is the messaging deep link carrying message for phone.
func HandoffURL(phone, message string) string {
	// Match encodeURIComponent: spaces as %20, never '+'.
	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + phone + "?text=" + encoded
}

// Notice is the informational line shown after a submission.
func Notice(remoteSaved bool, lang string) string {
	switch {
	case remoteSaved && lang == models.LangEN:
		return "Order saved successfully"
	case remoteSaved:
		return "تم حفظ الطلب بنجاح"
	case lang == models.LangEN:
		return "Order saved locally"
	default:
		return "تم حفظ الطلب محلياً"
	}
}
