package valueobject

import "fmt"

// MessageVariant 消息种类标签
type MessageVariant int

const (
	VariantNormal MessageVariant = iota
	VariantEdited
	VariantTapback
	VariantSharePlay
	VariantGroupAction
	VariantAudioKept
	VariantLocationShare
	VariantApp
	VariantUnknown
)

// TapbackAction 反应动作: 添加或移除
type TapbackAction int

const (
	TapbackAdded TapbackAction = iota
	TapbackRemoved
)

// TapbackType 反应类型
type TapbackType int

const (
	TapbackSticker TapbackType = iota
	TapbackLoved
	TapbackLiked
	TapbackDisliked
	TapbackLaughed
	TapbackEmphasized
	TapbackQuestioned
	TapbackEmoji
)

// GroupActionVariant 群组事件种类
type GroupActionVariant int

const (
	GroupParticipantAdded GroupActionVariant = iota
	GroupParticipantRemoved
	GroupNameChanged
	GroupParticipantLeft
	GroupIconChanged
	GroupIconRemoved
)

// LocationStatus 位置共享状态
type LocationStatus int

const (
	LocationNotShared LocationStatus = iota
	LocationSharing
	LocationEnded
	LocationUnknown
)

// MessageKind is the tagged union produced by classification. Variant
// selects which payload fields are meaningful; everything else is zero.
type MessageKind struct {
	Variant MessageVariant

	// VariantTapback
	TapbackAction TapbackAction
	TapbackType   TapbackType
	Emoji         string

	// VariantGroupAction
	GroupAction GroupActionVariant
	GroupTitle  string
	OtherHandle int64

	// VariantLocationShare
	Location LocationStatus

	// VariantApp
	Balloon Balloon

	// VariantUnknown
	RawCode int64
}

// NormalKind 普通消息
func NormalKind() MessageKind {
	return MessageKind{Variant: VariantNormal}
}

// EditedKind 已编辑消息
func EditedKind() MessageKind {
	return MessageKind{Variant: VariantEdited}
}

// TapbackKind 反应消息
func TapbackKind(action TapbackAction, typ TapbackType, emoji string) MessageKind {
	return MessageKind{
		Variant:       VariantTapback,
		TapbackAction: action,
		TapbackType:   typ,
		Emoji:         emoji,
	}
}

// SharePlayKind SharePlay 消息
func SharePlayKind() MessageKind {
	return MessageKind{Variant: VariantSharePlay}
}

// GroupActionKind 群组事件消息
func GroupActionKind(action GroupActionVariant, title string, otherHandle int64) MessageKind {
	return MessageKind{
		Variant:     VariantGroupAction,
		GroupAction: action,
		GroupTitle:  title,
		OtherHandle: otherHandle,
	}
}

// AudioKeptKind 语音保留通知
func AudioKeptKind() MessageKind {
	return MessageKind{Variant: VariantAudioKept}
}

// LocationKind 位置共享消息
func LocationKind(status LocationStatus) MessageKind {
	return MessageKind{Variant: VariantLocationShare, Location: status}
}

// AppKind 应用气泡消息
func AppKind(balloon Balloon) MessageKind {
	return MessageKind{Variant: VariantApp, Balloon: balloon}
}

// UnknownKind 未识别消息, 携带原始判别码用于诊断
func UnknownKind(rawCode int64) MessageKind {
	return MessageKind{Variant: VariantUnknown, RawCode: rawCode}
}

// IsURLBalloon reports whether this is an app message carrying a URL preview.
func (k MessageKind) IsURLBalloon() bool {
	return k.Variant == VariantApp && k.Balloon.Kind == BalloonURL
}

// TapbackGlyph returns the emoji glyph a reaction summary renders for this
// tapback, or the raw payload for custom emoji reactions.
func (k MessageKind) TapbackGlyph() string {
	switch k.TapbackType {
	case TapbackLoved:
		return "❤️"
	case TapbackLiked:
		return "👍"
	case TapbackDisliked:
		return "👎"
	case TapbackLaughed:
		return "😂"
	case TapbackEmphasized:
		return "‼️"
	case TapbackQuestioned:
		return "❓"
	case TapbackEmoji:
		return k.Emoji
	case TapbackSticker:
		return "[sticker]"
	}
	return ""
}

// String 返回种类的可读名称
func (k MessageKind) String() string {
	switch k.Variant {
	case VariantNormal:
		return "normal"
	case VariantEdited:
		return "edited"
	case VariantTapback:
		return "tapback"
	case VariantSharePlay:
		return "shareplay"
	case VariantGroupAction:
		return "group_action"
	case VariantAudioKept:
		return "audio_kept"
	case VariantLocationShare:
		return "location_share"
	case VariantApp:
		return "app"
	case VariantUnknown:
		return fmt.Sprintf("unknown(%d)", k.RawCode)
	}
	return "invalid"
}
