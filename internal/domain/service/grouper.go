package service

import (
	"sort"

	"github.com/chatvault/chatvault/internal/domain/entity"
	"github.com/chatvault/chatvault/internal/domain/valueobject"
)

// FilterMessages applies the export gates to a flat, chronologically
// ordered message list. Gates evaluate short-circuit in a fixed order:
// message type, date range, then thread scope (or threads-only mode).
// The result is sorted ascending by sent time and capped to the
// chronologically earliest MessageLimit messages when a cap is set.
func FilterMessages(msgs []*entity.Message, cfg valueobject.ExportConfig) []*entity.Message {
	// Reply guids of the target thread, over the full input list. A
	// reaction to a reply belongs to the thread even when the reply
	// itself fails a later gate.
	var threadReplies map[string]bool
	if cfg.ThreadGUID != "" {
		threadReplies = make(map[string]bool)
		for _, m := range msgs {
			if m.ThreadOriginatorGUID != nil && *m.ThreadOriginatorGUID == cfg.ThreadGUID {
				threadReplies[m.GUID] = true
			}
		}
	}

	filtered := make([]*entity.Message, 0, len(msgs))
	for _, m := range msgs {
		if !includeKind(Classify(m), cfg) {
			continue
		}
		if !cfg.InRange(m.SentAt()) {
			continue
		}
		if cfg.ThreadGUID != "" {
			if !inThreadScope(m, cfg.ThreadGUID, threadReplies) {
				continue
			}
		} else if cfg.ThreadsOnly {
			if !m.IsReply() && m.NumReplies == 0 {
				continue
			}
		}
		filtered = append(filtered, m)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].DateSent < filtered[j].DateSent
	})

	if cfg.MessageLimit > 0 && len(filtered) > cfg.MessageLimit {
		filtered = filtered[:cfg.MessageLimit]
	}
	return filtered
}

// includeKind is the type gate. URL-balloon app messages are always
// included: a link share is user content, not an announcement.
func includeKind(kind valueobject.MessageKind, cfg valueobject.ExportConfig) bool {
	switch kind.Variant {
	case valueobject.VariantNormal, valueobject.VariantEdited:
		return true
	case valueobject.VariantTapback:
		return cfg.IncludeReactions
	case valueobject.VariantApp:
		if kind.IsURLBalloon() {
			return true
		}
		return cfg.IncludeSystemMessages
	default:
		return cfg.IncludeSystemMessages
	}
}

// inThreadScope decides membership when a specific thread id is configured:
// the originator itself, its replies, and reactions to either.
func inThreadScope(m *entity.Message, threadGUID string, threadReplies map[string]bool) bool {
	if m.GUID == threadGUID {
		return true
	}
	if m.ThreadOriginatorGUID != nil && *m.ThreadOriginatorGUID == threadGUID {
		return true
	}
	if IsReactionCode(m.AssociatedMessageType) {
		target := m.AssociatedGUID()
		return target == threadGUID || threadReplies[target]
	}
	return false
}

// GroupThreads partitions a filtered, time-sorted message list into thread
// groups. Every non-reply, non-reaction message becomes a parent; replies
// and reactions attach to their parent by guid. Grouping is single-level.
func GroupThreads(filtered []*entity.Message) []entity.ThreadGroup {
	var groups []entity.ThreadGroup
	for _, m := range filtered {
		if m.IsReply() || IsReactionCode(m.AssociatedMessageType) {
			continue
		}
		group := entity.ThreadGroup{Parent: m}
		for _, other := range filtered {
			if other == m {
				continue
			}
			if IsReactionCode(other.AssociatedMessageType) {
				if other.AssociatedGUID() == m.GUID {
					group.Reactions = append(group.Reactions, other)
				}
				continue
			}
			if other.ThreadOriginatorGUID != nil && *other.ThreadOriginatorGUID == m.GUID {
				group.Replies = append(group.Replies, other)
			}
		}
		groups = append(groups, group)
	}
	return groups
}
