package openai

// responsesRequest is the request body for the OpenAI Responses API.
type responsesRequest struct {
	Model string          `json:"model"`
	Tools []responsesTool `json:"tools,omitempty"`
	Input string          `json:"input"`
}

// responsesTool enables a built-in tool on a Responses API request.
type responsesTool struct {
	Type string `json:"type"`
}

// responsesResponse is the subset of the Responses API response needed to
// extract the generated text.
type responsesResponse struct {
	Output []responsesOutputItem `json:"output"`
}

// responsesOutputItem is one item of the response output array. Items of type
// "message" carry the generated content; other types (e.g. web_search_call)
// are tool bookkeeping.
type responsesOutputItem struct {
	Type    string                 `json:"type"`
	Content []responsesContentPart `json:"content,omitempty"`
}

// responsesContentPart is one content part of a message output item.
type responsesContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// outputText concatenates all output_text parts across message items,
// mirroring the SDK convenience accessor of the same name.
func (r *responsesResponse) outputText() string {
	var text string
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				text += part.Text
			}
		}
	}
	return text
}
