package anthropic

// messagesRequest is the request body for the Anthropic Messages API.
type messagesRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	System    string         `json:"system,omitempty"`
	Tools     []messagesTool `json:"tools,omitempty"`
	Messages  []wireMessage  `json:"messages"`
}

// messagesTool enables a server-side tool on a Messages API request.
type messagesTool struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// wireMessage is one conversation turn on the wire. Content is always the
// block-array form.
type wireMessage struct {
	Role    string      `json:"role"`
	Content []wireBlock `json:"content"`
}

// wireBlock is one content block on the wire: a text block or a
// search_result block carrying a retrieved chunk.
type wireBlock struct {
	Type string `json:"type"`

	// type="text"
	Text string `json:"text,omitempty"`

	// type="search_result"
	Source  string      `json:"source,omitempty"`
	Title   string      `json:"title,omitempty"`
	Content []wireBlock `json:"content,omitempty"`
}

// messagesResponse is the subset of the Messages API response needed to
// extract reply text.
type messagesResponse struct {
	Content []wireBlock `json:"content"`
}

// firstText returns the text of the first text block in the response, or ""
// when the response carries no text.
func (r *messagesResponse) firstText() string {
	for _, block := range r.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}
