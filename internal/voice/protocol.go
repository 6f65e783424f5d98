package voice

// Wire protocol message shapes for the realtime connection. Every message
// is a JSON text frame with a "type" discriminator.

// sessionUpdateMessage configures the session right after connecting.
type sessionUpdateMessage struct {
	Type    string        `json:"type"`
	Session sessionParams `json:"session"`
}

type sessionParams struct {
	Modalities        []string       `json:"modalities,omitempty"`
	Instructions      string         `json:"instructions,omitempty"`
	Voice             string         `json:"voice,omitempty"`
	InputAudioFormat  string         `json:"input_audio_format"`
	OutputAudioFormat string         `json:"output_audio_format"`
	TurnDetection     *turnDetection `json:"turn_detection,omitempty"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitempty"`
}

// conversationItemMessage injects a text item into the conversation.
type conversationItemMessage struct {
	Type string           `json:"type"`
	Item conversationItem `json:"item"`
}

type conversationItem struct {
	Type    string             `json:"type"`
	Role    string             `json:"role,omitempty"`
	Content []conversationPart `json:"content,omitempty"`
}

type conversationPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// audioAppendMessage streams one captured audio chunk.
type audioAppendMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio"` // base64 PCM16LE
}

// typeOnlyMessage covers response.create, input_audio_buffer.clear and
// other bodyless outbound messages.
type typeOnlyMessage struct {
	Type string `json:"type"`
}

// serverErrorDetail is the nested error object of an inbound error event.
type serverErrorDetail struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// serverEvent is the union of inbound event shapes the client cares about;
// unrecognized types are ignored.
type serverEvent struct {
	Type string `json:"type"`

	// response.audio.delta / response.audio_transcript.delta
	Delta string `json:"delta,omitempty"`

	// conversation.item.input_audio_transcription.completed
	Transcript string `json:"transcript,omitempty"`

	// error
	Error *serverErrorDetail `json:"error,omitempty"`
}

// Outbound message type values.
const (
	msgSessionUpdate  = "session.update"
	msgItemCreate     = "conversation.item.create"
	msgAudioAppend    = "input_audio_buffer.append"
	msgAudioClear     = "input_audio_buffer.clear"
	msgResponseCreate = "response.create"
)

// Inbound event type values.
const (
	evtSessionCreated      = "session.created"
	evtSessionUpdated      = "session.updated"
	evtResponseCreated     = "response.created"
	evtResponseDone        = "response.done"
	evtAudioDelta          = "response.audio.delta"
	evtTranscriptDelta     = "response.audio_transcript.delta"
	evtTranscriptDone      = "response.audio_transcript.done"
	evtInputTranscriptDone = "conversation.item.input_audio_transcription.completed"
	evtError               = "error"
)
