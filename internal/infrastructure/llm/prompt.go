package llm

import (
	"encoding/base64"
	"fmt"

	"github.com/labelscan/backend/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

// Prompts sent with every label photo
const (
	SystemPrompt = "You are a product label analyzer. Extract information from the image and return it in JSON format matching the ProductData interface. The product may be in Polish."

	UserPrompt = "Analyze this product label. Extract the product name, price (if available), list of ingredients, " +
		"macronutrients (calories, protein, carbohydrates, fat), and vitamins (if available). " +
		"Format the response as JSON with the keys name, price, ingredients, macronutrients and vitamins. " +
		"If price or vitamins are not available, use null."
)

const defaultImageType = "image/jpeg"

// DataURI encodes the image as a base64 data URI
func DataURI(image *domain.LabelImage) string {
	contentType := image.ContentType
	if contentType == "" {
		contentType = defaultImageType
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(image.Data))
}

// buildRequest creates the chat completion request for one label photo
func buildRequest(model string, maxTokens int, image *domain.LabelImage) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: UserPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    DataURI(image),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}
}
