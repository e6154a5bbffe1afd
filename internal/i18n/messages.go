package i18n

import "golang.org/x/text/language"

const (
	LogTicketCreated        Key = "log.ticket_created"
	LogTicketUpdated        Key = "log.ticket_updated"
	LogTicketDeleted        Key = "log.ticket_deleted"
	LogServiceTicketCreated Key = "log.service_ticket_created"
	LogServiceTicketUpdated Key = "log.service_ticket_updated"
	LogServiceTicketDeleted Key = "log.service_ticket_deleted"
	LogAgentCreated         Key = "log.agent_created"
	LogAgentBalanceUpdated  Key = "log.agent_balance_updated"
	LogUserCreated          Key = "log.user_created"
	LogUserRoleUpdated      Key = "log.user_role_updated"
	LogUserBalanceUpdated   Key = "log.user_balance_updated"
	LogCurrencyCreated      Key = "log.currency_created"
	LogCurrencyUpdated      Key = "log.currency_updated"
	LogCurrencyDeleted      Key = "log.currency_deleted"
	LogServiceCreated       Key = "log.service_created"
	LogServiceUpdated       Key = "log.service_updated"

	NotifyNetwork         Key = "notify.network"
	NotifyUnavailable     Key = "notify.unavailable"
	NotifyDeadline        Key = "notify.deadline"
	NotifyExhausted       Key = "notify.exhausted"
	NotifyPermission      Key = "notify.permission"
	NotifyNotFound        Key = "notify.not_found"
	NotifyAlreadyExists   Key = "notify.already_exists"
	NotifyUnknown         Key = "notify.unknown"
	NotifyOffline         Key = "notify.offline"
	NotifyReconnectFailed Key = "notify.reconnect_failed"
	NotifyReconnected     Key = "notify.reconnected"
)

var translations = map[language.Tag]map[Key]string{
	language.English: {
		LogTicketCreated:        "Ticket %s created for agent %s, paid %s",
		LogTicketUpdated:        "Ticket %s updated: %s",
		LogTicketDeleted:        "Ticket %s of agent %s deleted",
		LogServiceTicketCreated: "Service ticket %s (%s) created for agent %s",
		LogServiceTicketUpdated: "Service ticket %s updated: %s",
		LogServiceTicketDeleted: "Service ticket %s (%s) deleted",
		LogAgentCreated:         "Agent %s created",
		LogAgentBalanceUpdated:  "Balance of agent %s changed from %s to %s (%s)",
		LogUserCreated:          "User %s signed in for the first time",
		LogUserRoleUpdated:      "Role of %s changed from %s to %s",
		LogUserBalanceUpdated:   "Credit of %s changed from %s to %s (%s)",
		LogCurrencyCreated:      "Currency %s added",
		LogCurrencyUpdated:      "Currency %s updated: %s",
		LogCurrencyDeleted:      "Currency %s removed",
		LogServiceCreated:       "Service %s added",
		LogServiceUpdated:       "Service %s updated: %s",

		NotifyNetwork:         "Unable to reach the server. Check your connection and try again.",
		NotifyUnavailable:     "The service is temporarily unavailable. Please try again.",
		NotifyDeadline:        "The request took too long. Please try again.",
		NotifyExhausted:       "Too many requests. Please wait a moment and try again.",
		NotifyPermission:      "You do not have permission to perform this action.",
		NotifyNotFound:        "The requested record was not found.",
		NotifyAlreadyExists:   "This record already exists.",
		NotifyUnknown:         "Something went wrong. Please try again.",
		NotifyOffline:         "You are offline. Changes cannot be saved until the connection returns.",
		NotifyReconnectFailed: "Connection lost. Retry manually to reconnect.",
		NotifyReconnected:     "Connection restored.",
	},
	language.Arabic: {
		LogTicketCreated:        "تم إنشاء التذكرة %s للوكيل %s، المدفوع %s",
		LogTicketUpdated:        "تم تحديث التذكرة %s: %s",
		LogTicketDeleted:        "تم حذف التذكرة %s للوكيل %s",
		LogServiceTicketCreated: "تم إنشاء تذكرة الخدمة %s (%s) للوكيل %s",
		LogServiceTicketUpdated: "تم تحديث تذكرة الخدمة %s: %s",
		LogServiceTicketDeleted: "تم حذف تذكرة الخدمة %s (%s)",
		LogAgentCreated:         "تم إنشاء الوكيل %s",
		LogAgentBalanceUpdated:  "تغير رصيد الوكيل %s من %s إلى %s (%s)",
		LogUserCreated:          "سجل المستخدم %s الدخول لأول مرة",
		LogUserRoleUpdated:      "تغير دور %s من %s إلى %s",
		LogUserBalanceUpdated:   "تغير رصيد %s من %s إلى %s (%s)",
		LogCurrencyCreated:      "تمت إضافة العملة %s",
		LogCurrencyUpdated:      "تم تحديث العملة %s: %s",
		LogCurrencyDeleted:      "تمت إزالة العملة %s",
		LogServiceCreated:       "تمت إضافة الخدمة %s",
		LogServiceUpdated:       "تم تحديث الخدمة %s: %s",

		NotifyNetwork:         "تعذر الوصول إلى الخادم. تحقق من الاتصال وحاول مرة أخرى.",
		NotifyUnavailable:     "الخدمة غير متاحة مؤقتاً. حاول مرة أخرى.",
		NotifyDeadline:        "استغرق الطلب وقتاً طويلاً. حاول مرة أخرى.",
		NotifyExhausted:       "طلبات كثيرة جداً. انتظر قليلاً ثم حاول مرة أخرى.",
		NotifyPermission:      "ليست لديك صلاحية لتنفيذ هذا الإجراء.",
		NotifyNotFound:        "السجل المطلوب غير موجود.",
		NotifyAlreadyExists:   "هذا السجل موجود مسبقاً.",
		NotifyUnknown:         "حدث خطأ ما. حاول مرة أخرى.",
		NotifyOffline:         "أنت غير متصل. لا يمكن حفظ التغييرات حتى يعود الاتصال.",
		NotifyReconnectFailed: "انقطع الاتصال. أعد المحاولة يدوياً لإعادة الاتصال.",
		NotifyReconnected:     "تمت استعادة الاتصال.",
	},
}
