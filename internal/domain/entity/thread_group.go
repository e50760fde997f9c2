package entity

// ThreadGroup 线程分组: 一条父消息加上其有序回复与有序反应
//
// Invariants: every reply's thread-originator guid equals the parent guid,
// every reaction's associated guid equals the parent guid, and groups are
// disjoint over the parent set. Grouping is single-level; a reply's own
// replies are not nested.
type ThreadGroup struct {
	Parent    *Message
	Replies   []*Message
	Reactions []*Message
}
