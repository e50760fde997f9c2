package service

import (
	"github.com/chatvault/chatvault/internal/domain/entity"
	"github.com/chatvault/chatvault/internal/domain/valueobject"
)

// Raw item_type sentinels from the source database.
const (
	itemTypeNormal      = 0
	itemTypeParticipant = 1
	itemTypeGroupName   = 2
	itemTypeGroupIcon   = 3
	itemTypeLocation    = 4
	itemTypeAudioKept   = 5
	itemTypeSharePlay   = 6
)

// Raw associated_message_type reaction code ranges.
const (
	tapbackStickerCode = 1000
	tapbackAddedMin    = 2000
	tapbackAddedMax    = 2007
	tapbackRemovedMin  = 3000
	tapbackRemovedMax  = 3007
)

// IsReactionCode reports whether an associated-message type code denotes a
// tapback (added or removed).
func IsReactionCode(code int64) bool {
	if code == tapbackStickerCode {
		return true
	}
	if code >= tapbackAddedMin && code <= tapbackAddedMax {
		return true
	}
	return code >= tapbackRemovedMin && code <= tapbackRemovedMax
}

// classifyRule 分类规则: 按优先级排列的 (谓词, 构造器) 对
type classifyRule struct {
	name  string
	match func(*entity.Message) bool
	build func(*entity.Message) valueobject.MessageKind
}

// classifyRules is a strict priority list: the first matching rule wins.
// Order is load-bearing — an edited reaction is "edited", not "tapback".
var classifyRules = []classifyRule{
	{
		name:  "edited",
		match: func(m *entity.Message) bool { return m.DateEdited > 0 },
		build: func(m *entity.Message) valueobject.MessageKind {
			return valueobject.EditedKind()
		},
	},
	{
		name:  "tapback",
		match: func(m *entity.Message) bool { return IsReactionCode(m.AssociatedMessageType) },
		build: buildTapback,
	},
	{
		name:  "shareplay",
		match: func(m *entity.Message) bool { return m.ItemType == itemTypeSharePlay },
		build: func(m *entity.Message) valueobject.MessageKind {
			return valueobject.SharePlayKind()
		},
	},
	{
		name:  "group_action",
		match: matchGroupAction,
		build: buildGroupAction,
	},
	{
		name:  "audio_kept",
		match: func(m *entity.Message) bool { return m.ItemType == itemTypeAudioKept },
		build: func(m *entity.Message) valueobject.MessageKind {
			return valueobject.AudioKeptKind()
		},
	},
	{
		name:  "location_share",
		match: func(m *entity.Message) bool { return m.ItemType == itemTypeLocation },
		build: buildLocation,
	},
	{
		name:  "app",
		match: matchApp,
		build: func(m *entity.Message) valueobject.MessageKind {
			balloon, _ := valueobject.ResolveBalloon(bundleID(m))
			return valueobject.AppKind(balloon)
		},
	},
	{
		name:  "normal",
		match: func(m *entity.Message) bool { return m.ItemType == itemTypeNormal },
		build: func(m *entity.Message) valueobject.MessageKind {
			return valueobject.NormalKind()
		},
	},
}

// Classify maps a message's raw fields to exactly one MessageKind. Total
// and deterministic: unmatched input resolves to unknown(item_type), never
// an error.
func Classify(m *entity.Message) valueobject.MessageKind {
	for _, rule := range classifyRules {
		if rule.match(m) {
			return rule.build(m)
		}
	}
	return valueobject.UnknownKind(m.ItemType)
}

func buildTapback(m *entity.Message) valueobject.MessageKind {
	code := m.AssociatedMessageType
	action := valueobject.TapbackAdded
	if code >= tapbackRemovedMin {
		action = valueobject.TapbackRemoved
	}

	if code == tapbackStickerCode {
		return valueobject.TapbackKind(action, valueobject.TapbackSticker, "")
	}

	emoji := ""
	if m.AssociatedEmoji != nil {
		emoji = *m.AssociatedEmoji
	}

	var typ valueobject.TapbackType
	switch code % 1000 {
	case 0:
		typ = valueobject.TapbackLoved
	case 1:
		typ = valueobject.TapbackLiked
	case 2:
		typ = valueobject.TapbackDisliked
	case 3:
		typ = valueobject.TapbackLaughed
	case 4:
		typ = valueobject.TapbackEmphasized
	case 5:
		typ = valueobject.TapbackQuestioned
	case 6:
		return valueobject.TapbackKind(action, valueobject.TapbackEmoji, emoji)
	case 7:
		typ = valueobject.TapbackSticker
	}
	return valueobject.TapbackKind(action, typ, "")
}

func matchGroupAction(m *entity.Message) bool {
	switch m.ItemType {
	case itemTypeParticipant:
		return m.GroupActionType == 0 || m.GroupActionType == 1
	case itemTypeGroupName:
		return true
	case itemTypeGroupIcon:
		return m.GroupActionType >= 0 && m.GroupActionType <= 2
	}
	return false
}

func buildGroupAction(m *entity.Message) valueobject.MessageKind {
	title := ""
	if m.GroupTitle != nil {
		title = *m.GroupTitle
	}

	switch m.ItemType {
	case itemTypeParticipant:
		if m.GroupActionType == 0 {
			return valueobject.GroupActionKind(valueobject.GroupParticipantAdded, "", m.OtherHandle)
		}
		return valueobject.GroupActionKind(valueobject.GroupParticipantRemoved, "", m.OtherHandle)
	case itemTypeGroupName:
		// Title may legitimately be empty (name cleared).
		return valueobject.GroupActionKind(valueobject.GroupNameChanged, title, 0)
	default:
		switch m.GroupActionType {
		case 0:
			return valueobject.GroupActionKind(valueobject.GroupParticipantLeft, "", 0)
		case 1:
			return valueobject.GroupActionKind(valueobject.GroupIconChanged, "", 0)
		default:
			return valueobject.GroupActionKind(valueobject.GroupIconRemoved, "", 0)
		}
	}
}

func buildLocation(m *entity.Message) valueobject.MessageKind {
	if !m.ShareStatus {
		return valueobject.LocationKind(valueobject.LocationNotShared)
	}
	if m.ShareDirection == nil {
		return valueobject.LocationKind(valueobject.LocationUnknown)
	}
	if *m.ShareDirection {
		return valueobject.LocationKind(valueobject.LocationSharing)
	}
	return valueobject.LocationKind(valueobject.LocationEnded)
}

// matchApp applies only to non-reaction associated types and only when the
// balloon resolves; an absent bundle identifier falls through to the
// normal/unknown rules.
func matchApp(m *entity.Message) bool {
	switch m.AssociatedMessageType {
	case 0, 2, 3:
	default:
		return false
	}
	_, resolved := valueobject.ResolveBalloon(bundleID(m))
	return resolved
}

func bundleID(m *entity.Message) string {
	if m.BalloonBundleID == nil {
		return ""
	}
	return *m.BalloonBundleID
}
