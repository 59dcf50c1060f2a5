package discord

// InteractionResponseType identifies the kind of initial interaction reply.
type InteractionResponseType int

const (
	ResponseTypePong                             InteractionResponseType = 1
	ResponseTypeChannelMessageWithSource         InteractionResponseType = 4
	ResponseTypeDeferredChannelMessageWithSource InteractionResponseType = 5
	ResponseTypeDeferredUpdateMessage            InteractionResponseType = 6
	ResponseTypeUpdateMessage                    InteractionResponseType = 7
	ResponseTypeAutocompleteResult               InteractionResponseType = 8
)

// MessageFlags is a bit set of message flags.
type MessageFlags int

// MessageFlagEphemeral limits the reply to the invoking user.
const MessageFlagEphemeral MessageFlags = 1 << 6

// InteractionResponse is the body of an initial interaction reply.
type InteractionResponse struct {
	Type InteractionResponseType `json:"type"`
	Data *MessageData            `json:"data,omitempty"`
}

// AutocompleteResponse answers an autocomplete interaction.
type AutocompleteResponse struct {
	Type InteractionResponseType `json:"type"`
	Data AutocompleteData        `json:"data"`
}

// AutocompleteData lists the suggested choices. Choices always encodes as
// an array.
type AutocompleteData struct {
	Choices []ApplicationCommandOptionChoice `json:"choices"`
}

// MessageData is message content used by initial replies, edits of the
// original reply and follow-up messages. Files are uploaded as multipart
// parts and referenced from Attachments by index.
type MessageData struct {
	Content     string       `json:"content,omitempty"`
	Embeds      []Embed      `json:"embeds,omitempty"`
	Flags       MessageFlags `json:"flags,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Files       []File       `json:"-"`
}

// Attachment references an uploaded file part.
type Attachment struct {
	ID          int    `json:"id"`
	Filename    string `json:"filename"`
	Description string `json:"description,omitempty"`
}

// File is an upload sent alongside a message.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Embed is a rich message block.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

// EmbedFooter is the footer line of an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// Embed colors.
const (
	ColorInfo    = 0x5865F2
	ColorSuccess = 0x57F287
	ColorError   = 0xED4245
)

// InfoEmbed returns a neutral embed.
func InfoEmbed(description string) Embed {
	return Embed{Description: description, Color: ColorInfo}
}

// SuccessEmbed returns a success embed.
func SuccessEmbed(description string) Embed {
	return Embed{Description: description, Color: ColorSuccess}
}

// ErrorEmbed returns an error embed.
func ErrorEmbed(description string) Embed {
	return Embed{Description: description, Color: ColorError}
}
