package telegram

// Update is an inbound webhook payload. Exactly one of InlineQuery,
// CallbackQuery, or Message is populated.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	InlineQuery   *InlineQuery   `json:"inline_query,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
	Message       *Message       `json:"message,omitempty"`
}

// User is the Telegram account an update originates from.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Chat identifies where outbound messages go.
type Chat struct {
	ID int64 `json:"id"`
}

// Message is a plain chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// InlineQuery is a search-as-you-type request.
type InlineQuery struct {
	ID    string `json:"id"`
	From  User   `json:"from"`
	Query string `json:"query"`
}

// CallbackQuery is a button-tap request. Message is the message the button
// was attached to and may be absent for inline-mode taps.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

// InlineKeyboardButton is one tappable button. Exactly one of CallbackData
// or WebAppURL should be set.
type InlineKeyboardButton struct {
	Text         string
	CallbackData string
	WebAppURL    string
}

// InlineKeyboard is a grid of buttons attached to a message or result.
type InlineKeyboard struct {
	Rows [][]InlineKeyboardButton
}

// ArticleResult is one entry in an inline query answer.
type ArticleResult struct {
	ID          string
	Title       string
	Description string
	MessageText string
	Keyboard    *InlineKeyboard
}
