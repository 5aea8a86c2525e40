package application

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"
)

func viewOnceImage() *waE2E.ImageMessage {
	return &waE2E.ImageMessage{
		Mimetype:   proto.String("image/jpeg"),
		Caption:    proto.String("look"),
		DirectPath: proto.String("/v/t62.7118-24/123"),
		MediaKey:   []byte{1, 2, 3, 4},
		FileSHA256: []byte{9, 9, 9},
		ViewOnce:   proto.Bool(true),
	}
}

func TestContentKinds_FieldNumberOrder(t *testing.T) {
	msg := &waE2E.Message{
		ViewOnceMessageV2:  &waE2E.FutureProofMessage{Message: &waE2E.Message{ImageMessage: viewOnceImage()}},
		MessageContextInfo: &waE2E.MessageContextInfo{MessageSecret: []byte{7}},
	}

	assert.Equal(t, []string{"messageContextInfo", "viewOnceMessageV2"}, ContentKinds(msg))
}

func TestContentKinds_NilAndEmpty(t *testing.T) {
	var nilMsg *waE2E.Message
	assert.Empty(t, ContentKinds(nil))
	assert.Empty(t, ContentKinds(nilMsg))
	assert.Empty(t, ContentKinds(&waE2E.Message{}))
}

func TestStripViewOnce(t *testing.T) {
	wrap := func(inner *waE2E.Message) *waE2E.FutureProofMessage {
		return &waE2E.FutureProofMessage{Message: inner}
	}

	tests := []struct {
		name     string
		msg      *waE2E.Message
		wantOK   bool
		wantKind string
		wantFile string
	}{
		{
			name:     "plain wrapper",
			msg:      &waE2E.Message{ViewOnceMessage: wrap(&waE2E.Message{ImageMessage: viewOnceImage()})},
			wantOK:   true,
			wantKind: "viewOnceMessage",
			wantFile: "imageMessage",
		},
		{
			name: "v2 wrapper after context info",
			msg: &waE2E.Message{
				MessageContextInfo: &waE2E.MessageContextInfo{MessageSecret: []byte{1}},
				ViewOnceMessageV2:  wrap(&waE2E.Message{VideoMessage: &waE2E.VideoMessage{ViewOnce: proto.Bool(true)}}),
			},
			wantOK:   true,
			wantKind: "viewOnceMessageV2",
			wantFile: "videoMessage",
		},
		{
			name: "v2 extension after sender key distribution",
			msg: &waE2E.Message{
				SenderKeyDistributionMessage: &waE2E.SenderKeyDistributionMessage{GroupID: proto.String("123@g.us")},
				ViewOnceMessageV2Extension:   wrap(&waE2E.Message{AudioMessage: &waE2E.AudioMessage{ViewOnce: proto.Bool(true)}}),
			},
			wantOK:   true,
			wantKind: "viewOnceMessageV2Extension",
			wantFile: "audioMessage",
		},
		{
			name:   "plain text",
			msg:    &waE2E.Message{Conversation: proto.String("hi")},
			wantOK: false,
		},
		{
			name: "outermost kind not an envelope",
			msg: &waE2E.Message{
				Conversation:    proto.String("hi"),
				ViewOnceMessage: wrap(&waE2E.Message{ImageMessage: viewOnceImage()}),
			},
			wantOK: false,
		},
		{
			name: "envelope without view-once as last kind",
			msg: &waE2E.Message{
				SenderKeyDistributionMessage: &waE2E.SenderKeyDistributionMessage{GroupID: proto.String("123@g.us")},
				ImageMessage:                 viewOnceImage(),
			},
			wantOK: false,
		},
		{
			name: "view-once followed by another kind",
			msg: &waE2E.Message{
				ViewOnceMessage: wrap(&waE2E.Message{ImageMessage: viewOnceImage()}),
				ReactionMessage: &waE2E.ReactionMessage{Text: proto.String("x")},
			},
			wantOK: false,
		},
		{
			name:   "wrapper without inner message",
			msg:    &waE2E.Message{ViewOnceMessage: &waE2E.FutureProofMessage{}},
			wantOK: false,
		},
		{
			name:   "wrapper with empty inner message",
			msg:    &waE2E.Message{ViewOnceMessageV2: wrap(&waE2E.Message{})},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := stripViewOnce(tt.msg)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantKind, match.Kind)
				assert.Equal(t, tt.wantFile, match.FileKind)
			}
		})
	}
}

func TestStripViewOnce_ClearsOnlyTheFlag(t *testing.T) {
	msg := &waE2E.Message{
		MessageContextInfo: &waE2E.MessageContextInfo{MessageSecret: []byte{5, 5}},
		ViewOnceMessageV2: &waE2E.FutureProofMessage{
			Message: &waE2E.Message{ImageMessage: viewOnceImage()},
		},
	}
	want := proto.Clone(msg).(*waE2E.Message)
	want.GetViewOnceMessageV2().GetMessage().GetImageMessage().ViewOnce = nil

	_, ok := stripViewOnce(msg)
	require.True(t, ok)

	img := msg.GetViewOnceMessageV2().GetMessage().GetImageMessage()
	assert.Nil(t, img.ViewOnce)
	assert.False(t, img.GetViewOnce())

	if d := cmp.Diff(want, msg, protocmp.Transform()); d != "" {
		t.Errorf("payload changed beyond the view-once flag (-want +got):\n%s", d)
	}
}

func TestStripViewOnce_MutatesCallerPayloadInPlace(t *testing.T) {
	img := viewOnceImage()
	inner := &waE2E.Message{ImageMessage: img}
	wrapper := &waE2E.FutureProofMessage{Message: inner}
	msg := &waE2E.Message{ViewOnceMessage: wrapper}

	match, ok := stripViewOnce(msg)
	require.True(t, ok)
	assert.Equal(t, "viewOnceMessage", match.Kind)
	assert.Equal(t, "imageMessage", match.FileKind)

	assert.Same(t, wrapper, msg.GetViewOnceMessage())
	assert.Same(t, inner, wrapper.GetMessage())
	assert.Same(t, img, inner.GetImageMessage())
	assert.Nil(t, img.ViewOnce)
}

func TestStripViewOnce_RoundTripPreservesBytes(t *testing.T) {
	img := viewOnceImage()
	msg := &waE2E.Message{ViewOnceMessage: &waE2E.FutureProofMessage{Message: &waE2E.Message{ImageMessage: img}}}

	_, ok := stripViewOnce(msg)
	require.True(t, ok)

	raw, err := proto.Marshal(msg)
	require.NoError(t, err)

	var decoded waE2E.Message
	require.NoError(t, proto.Unmarshal(raw, &decoded))

	got := decoded.GetViewOnceMessage().GetMessage().GetImageMessage()
	assert.Equal(t, "image/jpeg", got.GetMimetype())
	assert.Equal(t, "look", got.GetCaption())
	assert.Equal(t, "/v/t62.7118-24/123", got.GetDirectPath())
	assert.Equal(t, []byte{1, 2, 3, 4}, got.GetMediaKey())
	assert.Equal(t, []byte{9, 9, 9}, got.GetFileSHA256())
	assert.Nil(t, got.ViewOnce)
}

func TestStripViewOnce_NoMatchLeavesContentUntouched(t *testing.T) {
	msg := &waE2E.Message{
		SenderKeyDistributionMessage: &waE2E.SenderKeyDistributionMessage{GroupID: proto.String("g")},
		ImageMessage:                 viewOnceImage(),
	}
	before := proto.Clone(msg)

	_, ok := stripViewOnce(msg)

	assert.False(t, ok)
	assert.True(t, proto.Equal(before, msg))
}
