package socketio

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

type enginePacketType byte

const (
	engineOpen    enginePacketType = '0'
	engineClose   enginePacketType = '1'
	enginePing    enginePacketType = '2'
	enginePong    enginePacketType = '3'
	engineMessage enginePacketType = '4'
)

type socketPacketType byte

const (
	socketConnect     socketPacketType = '0'
	socketEvent       socketPacketType = '2'
	socketBinaryEvent socketPacketType = '5'
)

func parseOptionalNamespace(s string) (namespace string, rest string) {
	if !strings.HasPrefix(s, "/") {
		return "/", s
	}
	comma := strings.IndexByte(s, ',')
	if comma == -1 {
		return "/", s
	}
	return s[:comma], s[comma+1:]
}

func parseOptionalIDPrefix(s string) (id *int, rest string) {
	i := 0
	for i < len(s) {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		i++
	}
	if i == 0 {
		return nil, s
	}
	v, err := strconv.Atoi(s[:i])
	if err != nil {
		return nil, s
	}
	return &v, s[i:]
}

type socketEventPacket struct {
	Namespace string
	ID        *int
	Event     string
	Args      []json.RawMessage
}

func parseSocketEventPacket(payload string) (socketEventPacket, error) {
	if payload == "" {
		return socketEventPacket{}, errors.New("empty payload")
	}
	if payload[0] != byte(socketEvent) {
		return socketEventPacket{}, errors.New("not an event packet")
	}

	ns, rest := parseOptionalNamespace(payload[1:])
	id, rest := parseOptionalIDPrefix(rest)
	if !strings.HasPrefix(rest, "[") {
		return socketEventPacket{}, errors.New("invalid event payload")
	}

	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(rest), &arr); err != nil {
		return socketEventPacket{}, err
	}
	if len(arr) == 0 {
		return socketEventPacket{}, errors.New("missing event name")
	}
	var eventName string
	if err := json.Unmarshal(arr[0], &eventName); err != nil {
		return socketEventPacket{}, errors.New("invalid event name")
	}

	return socketEventPacket{Namespace: ns, ID: id, Event: eventName, Args: arr[1:]}, nil
}

// Binary events carry an attachment count between the packet type and the
// namespace ("5<count>-..."); the JSON args hold placeholder objects and the
// attachments follow as separate binary websocket frames.

type socketBinaryEventPacket struct {
	Namespace   string
	ID          *int
	Attachments int
	Event       string
	Args        []json.RawMessage
}

func parseSocketBinaryEventPacket(payload string) (socketBinaryEventPacket, error) {
	if payload == "" {
		return socketBinaryEventPacket{}, errors.New("empty payload")
	}
	if payload[0] != byte(socketBinaryEvent) {
		return socketBinaryEventPacket{}, errors.New("not a binary event packet")
	}

	rest := payload[1:]
	dash := strings.IndexByte(rest, '-')
	if dash <= 0 {
		return socketBinaryEventPacket{}, errors.New("missing attachment count")
	}
	count, err := strconv.Atoi(rest[:dash])
	if err != nil || count < 1 {
		return socketBinaryEventPacket{}, errors.New("invalid attachment count")
	}
	rest = rest[dash+1:]

	ns, rest := parseOptionalNamespace(rest)
	id, rest := parseOptionalIDPrefix(rest)
	if !strings.HasPrefix(rest, "[") {
		return socketBinaryEventPacket{}, errors.New("invalid event payload")
	}

	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(rest), &arr); err != nil {
		return socketBinaryEventPacket{}, err
	}
	if len(arr) == 0 {
		return socketBinaryEventPacket{}, errors.New("missing event name")
	}
	var eventName string
	if err := json.Unmarshal(arr[0], &eventName); err != nil {
		return socketBinaryEventPacket{}, errors.New("invalid event name")
	}

	return socketBinaryEventPacket{
		Namespace:   ns,
		ID:          id,
		Attachments: count,
		Event:       eventName,
		Args:        arr[1:],
	}, nil
}

type binaryPlaceholder struct {
	Placeholder bool `json:"_placeholder"`
	Num         int  `json:"num"`
}

// placeholderIndex reports which attachment a raw arg stands in for, or
// false when the arg is ordinary JSON.
func placeholderIndex(raw json.RawMessage) (int, bool) {
	var p binaryPlaceholder
	if err := json.Unmarshal(raw, &p); err != nil || !p.Placeholder {
		return 0, false
	}
	return p.Num, true
}

// buildSocketBinaryEventPacket serializes an event whose binaryField is
// delivered as the single trailing attachment frame.
func buildSocketBinaryEventPacket(namespace, event string, fields map[string]any, binaryField string) (string, error) {
	obj := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		obj[k] = v
	}
	obj[binaryField] = binaryPlaceholder{Placeholder: true, Num: 0}

	data, err := json.Marshal([]any{event, obj})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteByte(byte(socketBinaryEvent))
	b.WriteString("1-")
	if namespace != "" && namespace != "/" {
		b.WriteString(namespace)
		b.WriteByte(',')
	}
	b.Write(data)
	return b.String(), nil
}

func buildSocketEventPacket(namespace string, id *int, event string, args ...any) (string, error) {
	arr := make([]any, 0, 1+len(args))
	arr = append(arr, event)
	arr = append(arr, args...)
	data, err := json.Marshal(arr)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteByte(byte(socketEvent))
	if namespace != "" && namespace != "/" {
		b.WriteString(namespace)
		b.WriteByte(',')
	}
	if id != nil {
		b.WriteString(strconv.Itoa(*id))
	}
	b.Write(data)
	return b.String(), nil
}

func buildSocketConnectPacket(namespace string, sid string) (string, error) {
	data, err := json.Marshal(map[string]string{"sid": sid})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteByte(byte(socketConnect))
	if namespace != "" && namespace != "/" {
		b.WriteString(namespace)
		b.WriteByte(',')
	}
	b.Write(data)
	return b.String(), nil
}

