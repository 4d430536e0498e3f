package response

// GenericErrorMessage is the only error text a client ever sees.
const GenericErrorMessage = "Something unexpected has happened. Please try again later."

// Message is the {"message": "..."} body shared by error and write responses.
type Message struct {
	Message string `json:"message"`
}

// Generic is the body of every 500 response.
func Generic() Message {
	return Message{Message: GenericErrorMessage}
}

// Collection is a {key: items} body, e.g. {"authors": [...]}.
func Collection(key string, items any) map[string]any {
	return map[string]any{key: items}
}

// Written is the body of a successful write: a message plus the refreshed collection.
func Written(message, key string, items any) map[string]any {
	return map[string]any{
		"message": message,
		key:       items,
	}
}
