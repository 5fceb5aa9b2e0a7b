package orderflow

import "strings"

// Keyboard labels the chat frontend renders; matched verbatim against
// incoming message text.
const (
	ButtonSelfPickup = "🏪 Самовивіз"
	ButtonPayNow     = "🚚 Оплатити зараз"
	ButtonBackToCart = "🔙 Назад до кошику"
	ButtonPay        = "💳 Оплатити замовлення"
)

const (
	msgChooseDelivery = "Оберіть спосіб доставки:"

	msgSelfPickupChosen = "Ви обрали самовивіз. Для оформлення замовлення, будь ласка, введіть ваш номер телефону у форматі +380XXXXXXXXX:"
	msgPayNowChosen     = "Ви обрали оплату зараз. Для оформлення замовлення, будь ласка, введіть ваш номер телефону у форматі +380XXXXXXXXX:"

	msgAskEmail = "Введіть ваш email для отримання квитанції:"

	msgEmptyCart = "Помилка: кошик порожній"

	msgSelfPickupDone = "✅ Ваше замовлення на самовивіз успішно оформлено!\n\n" +
		"Наш менеджер зв'яжеться з вами за номером %s для підтвердження деталей замовлення та адреси самовивозу.\n\n" +
		"Дякуємо за замовлення!"

	msgOrderReady = "✅ Ваше замовлення сформовано!\n\nДля завершення натисніть кнопку нижче, щоб перейти до оплати."

	msgInvoiceDeclined = "❌ Помилка при створенні платежу: %s.\nСпробуйте ще раз або зв'яжіться з нами для допомоги."

	msgInvoiceFailed = "❌ Виникла помилка при обробці платежу: %s.\nБудь ласка, спробуйте ще раз пізніше або зв'яжіться з нами для допомоги."

	msgPaymentCancelled = "Ви скасували оплату і повертаєтесь до меню."

	msgPaymentStatus = "Перевірка статусу оплати. Якщо ви вже оплатили замовлення, " +
		"наш менеджер зв'яжеться з вами за номером %s.\n\n" +
		"Якщо ви ще не оплатили, ви можете перейти за посиланням: %s"

	unknownGatewayReason = "Невідома помилка"
)

// cancelKeywords abort a pending payment from ConfirmingPayment. Matched
// case-insensitively.
var cancelKeywords = []string{"назад", "скасувати", "відмінити", "cancel"}

func isCancel(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, kw := range cancelKeywords {
		if lowered == kw {
			return true
		}
	}
	return false
}
