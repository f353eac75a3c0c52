// Package im sends and replies to chat messages.
package im

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	gohttp "github.com/km-arc/go-feishu/framework/http"
	"github.com/km-arc/go-feishu/framework/http/validation"
	"github.com/km-arc/go-feishu/framework/log"
)

const (
	receiveIDTypes = "open_id,user_id,union_id,email,chat_id"
	msgTypes       = "text,post,image,file,audio,media,sticker,interactive,share_chat,share_user"
)

// Authorizer runs an API call with a valid tenant access token.
type Authorizer interface {
	Call(ctx context.Context, fn func(token string) error) error
}

// SendInput describes one outbound message.
type SendInput struct {
	ReceiveIDType string
	ReceiveID     string
	MsgType       string
	// Content is either a JSON string or a value marshalled to JSON.
	Content any
	// UUID deduplicates retries of the same message. A random one is used
	// when empty.
	UUID string
}

// Message is a sent message as returned by the API.
type Message struct {
	MessageID  string `json:"message_id"`
	RootID     string `json:"root_id"`
	ParentID   string `json:"parent_id"`
	MsgType    string `json:"msg_type"`
	ChatID     string `json:"chat_id"`
	CreateTime string `json:"create_time"`
}

// Im is the messaging client.
type Im struct {
	auth   Authorizer
	client *gohttp.Client
}

// New creates an Im. A nil client uses gohttp.Shared().
func New(auth Authorizer, client *gohttp.Client) *Im {
	if client == nil {
		client = gohttp.Shared()
	}
	return &Im{auth: auth, client: client}
}

// Send sends a message to a user or chat.
func (m *Im) Send(ctx context.Context, in SendInput) (*Message, error) {
	content, err := encodeContent(in.Content)
	if err != nil {
		return nil, err
	}
	if err := validation.Make(
		map[string]string{
			"receive_id_type": in.ReceiveIDType,
			"receive_id":      in.ReceiveID,
			"msg_type":        in.MsgType,
			"content":         content,
		},
		validation.Rules{
			"receive_id_type": "required|in:" + receiveIDTypes,
			"receive_id":      "required",
			"msg_type":        "required|in:" + msgTypes,
			"content":         "required|json",
		},
	).Validate(); err != nil {
		return nil, err
	}

	body := map[string]string{
		"receive_id": in.ReceiveID,
		"msg_type":   in.MsgType,
		"content":    content,
		"uuid":       idempotencyKey(in.UUID),
	}
	query := url.Values{"receive_id_type": {in.ReceiveIDType}}

	msg, err := m.post(ctx, "im/v1/messages", query, body)
	if err != nil {
		return nil, err
	}
	log.Debug("message sent", "message_id", msg.MessageID, "msg_type", in.MsgType)
	return msg, nil
}

// SendText sends a plain text message.
//
//	im.SendText(ctx, "chat_id", "oc_a0553eda9014c201e6969b478895c230", "deploy finished")
func (m *Im) SendText(ctx context.Context, receiveIDType, receiveID, text string) (*Message, error) {
	return m.Send(ctx, SendInput{
		ReceiveIDType: receiveIDType,
		ReceiveID:     receiveID,
		MsgType:       "text",
		Content:       map[string]string{"text": text},
	})
}

// Reply replies to an existing message in its chat.
func (m *Im) Reply(ctx context.Context, messageID, msgType string, content any) (*Message, error) {
	encoded, err := encodeContent(content)
	if err != nil {
		return nil, err
	}
	if err := validation.Make(
		map[string]string{"message_id": messageID, "msg_type": msgType, "content": encoded},
		validation.Rules{
			"message_id": "required",
			"msg_type":   "required|in:" + msgTypes,
			"content":    "required|json",
		},
	).Validate(); err != nil {
		return nil, err
	}

	body := map[string]string{
		"msg_type": msgType,
		"content":  encoded,
		"uuid":     idempotencyKey(""),
	}
	return m.post(ctx, "im/v1/messages/"+url.PathEscape(messageID)+"/reply", nil, body)
}

func (m *Im) post(ctx context.Context, path string, query url.Values, body any) (*Message, error) {
	var res struct {
		Data Message `json:"data"`
	}
	err := m.auth.Call(ctx, func(token string) error {
		return m.client.Post(ctx, path, query, body, token, &res)
	})
	if err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func encodeContent(content any) (string, error) {
	switch c := content.(type) {
	case nil:
		return "", nil
	case string:
		return c, nil
	case []byte:
		return string(c), nil
	case json.RawMessage:
		return string(c), nil
	}
	b, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("im: encode content: %w", err)
	}
	return string(b), nil
}

func idempotencyKey(key string) string {
	if key != "" {
		return key
	}
	return uuid.NewString()
}
