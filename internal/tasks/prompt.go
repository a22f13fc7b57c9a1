package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/playgen/internal/models"
	"github.com/sashabaranov/go-openai"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolName is the single function the model is asked to call.
const ToolName = "create_playlist"

const (
	systemPrompt = "You are MusicGPT, the world's best music recommendation AI. " +
		"When given a description of a user's music preference, you will recommend songs tailored to the user's preference."

	userPromptFormat = "Create a playlist with %d songs that fit the following description: '''%s'''. " +
		"Come up with a creative and unique name for the playlist."

	toolDescription = "Creates a spotify playlist based on a list of songs that should be added to the list."

	schemaURL = "create_playlist.json"
)

// schemaNode is the subset of JSON Schema used by the create_playlist parameters.
type schemaNode struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*schemaNode `json:"properties,omitempty"`
	Items       *schemaNode            `json:"items,omitempty"`
	Required    []string               `json:"required,omitempty"`
	MinItems    int                    `json:"minItems,omitempty"`
	MinLength   int                    `json:"minLength,omitempty"`
}

var playlistSchema = &schemaNode{
	Type: "object",
	Properties: map[string]*schemaNode{
		"playlist_name": {
			Type:        "string",
			Description: "Name of playlist",
			MinLength:   1,
		},
		"playlist_description": {
			Type:        "string",
			Description: "Description for the playlist.",
		},
		"songs": {
			Type:     "array",
			MinItems: 1,
			Items: &schemaNode{
				Type: "object",
				Properties: map[string]*schemaNode{
					"song_name": {
						Type:        "string",
						Description: "Name of the song that should be added to the playlist.",
						MinLength:   1,
					},
					"artists": {
						Type:        "array",
						Description: "List of all artists",
						MinItems:    1,
						Items: &schemaNode{
							Type:        "string",
							Description: "Name of the artist of the song",
						},
					},
				},
				Required: []string{"song_name", "artists"},
			},
		},
	},
	Required: []string{"songs", "playlist_name", "playlist_description"},
}

var (
	schemaDocument []byte
	compiledSchema *jsonschema.Schema
)

func init() {
	var err error
	if schemaDocument, err = json.Marshal(playlistSchema); err != nil {
		panic(fmt.Sprintf("failed to encode %s schema: %v", ToolName, err))
	}
	if compiledSchema, err = compileSchema(schemaDocument); err != nil {
		panic(fmt.Sprintf("failed to compile %s schema: %v", ToolName, err))
	}
}

func compileSchema(doc []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(doc)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
}

// Schema returns the JSON Schema document for the create_playlist parameters.
func Schema() json.RawMessage {
	return json.RawMessage(schemaDocument)
}

// Format builds the chat completion request for req: a system role message, the user's description,
// and a forced call to the create_playlist tool.
func Format(req models.PlaylistRequest) (openai.ChatCompletionRequest, error) {
	if err := req.Validate(); err != nil {
		return openai.ChatCompletionRequest{}, err
	}

	return openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(userPromptFormat, req.SongCount, req.Description)},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        ToolName,
					Description: toolDescription,
					Parameters:  Schema(),
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: ToolName},
		},
	}, nil
}
