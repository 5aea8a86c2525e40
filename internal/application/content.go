package application

import (
	"regexp"
	"sort"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Content kinds are the populated top-level fields of a message payload,
// named by their JSON names.
var (
	// envelopeKindPattern matches outermost kinds that may carry a view-once
	// wrapper at an inner layer.
	envelopeKindPattern = regexp.MustCompile(`^(messageContextInfo|senderKeyDistributionMessage|viewOnceMessage(?:V2(?:Extension)?)?)$`)

	// viewOnceKindPattern matches the view-once wrapper itself.
	viewOnceKindPattern = regexp.MustCompile(`^viewOnceMessage(?:V2(?:Extension)?)?$`)
)

const (
	wrapperInnerField = "message"
	viewOnceFlagField = "viewOnce"
)

// viewOnceMatch describes a view-once message found in a payload.
type viewOnceMatch struct {
	Kind     string
	FileKind string
}

// ContentKinds returns the content kinds of m in field-number order, which
// is the order they appear on the wire.
func ContentKinds(m proto.Message) []string {
	if m == nil || !m.ProtoReflect().IsValid() {
		return nil
	}
	fields := populatedFields(m.ProtoReflect())
	kinds := make([]string, 0, len(fields))
	for _, fd := range fields {
		kinds = append(kinds, fd.JSONName())
	}
	return kinds
}

func populatedFields(m protoreflect.Message) []protoreflect.FieldDescriptor {
	var fields []protoreflect.FieldDescriptor
	m.Range(func(fd protoreflect.FieldDescriptor, _ protoreflect.Value) bool {
		fields = append(fields, fd)
		return true
	})
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Number() < fields[j].Number()
	})
	return fields
}

func isSingularMessage(fd protoreflect.FieldDescriptor) bool {
	return fd.Message() != nil && !fd.IsList() && !fd.IsMap()
}

// stripViewOnce locates a view-once wrapper in content and clears the
// view-once flag on its inner payload in place. Both the outermost kind and
// the last kind are checked. It returns false, leaving content untouched,
// when content is not a view-once message.
func stripViewOnce(content proto.Message) (viewOnceMatch, bool) {
	if content == nil || !content.ProtoReflect().IsValid() {
		return viewOnceMatch{}, false
	}
	m := content.ProtoReflect()

	kinds := populatedFields(m)
	if len(kinds) == 0 || !envelopeKindPattern.MatchString(kinds[0].JSONName()) {
		return viewOnceMatch{}, false
	}

	last := kinds[len(kinds)-1]
	if !viewOnceKindPattern.MatchString(last.JSONName()) || !isSingularMessage(last) {
		return viewOnceMatch{}, false
	}

	wrapper := m.Mutable(last).Message()
	innerFD := wrapper.Descriptor().Fields().ByJSONName(wrapperInnerField)
	if innerFD == nil || !isSingularMessage(innerFD) || !wrapper.Has(innerFD) {
		return viewOnceMatch{}, false
	}
	inner := wrapper.Mutable(innerFD).Message()

	fileKinds := populatedFields(inner)
	if len(fileKinds) == 0 {
		return viewOnceMatch{}, false
	}
	file := fileKinds[0]

	if isSingularMessage(file) {
		payload := inner.Mutable(file).Message()
		if flag := payload.Descriptor().Fields().ByJSONName(viewOnceFlagField); flag != nil {
			payload.Clear(flag)
		}
	}

	return viewOnceMatch{Kind: last.JSONName(), FileKind: file.JSONName()}, true
}
