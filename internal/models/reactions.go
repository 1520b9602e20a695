package models

// AddReaction returns a new reaction map with userID added to the emoji's
// user set. Adding a user that already reacted with the emoji is a no-op.
// The input map is not modified.
func AddReaction(reactions map[string][]string, emoji, userID string) map[string][]string {
	out := copyReactions(reactions)
	users := out[emoji]
	for _, id := range users {
		if id == userID {
			return out
		}
	}
	next := make([]string, len(users), len(users)+1)
	copy(next, users)
	out[emoji] = append(next, userID)
	return out
}

// RemoveReaction returns a new reaction map with userID removed from the
// emoji's user set. An emoji left with no users is dropped entirely, and a
// map left with no emojis comes back nil, so removal is the exact inverse of
// AddReaction. The input map is not modified.
func RemoveReaction(reactions map[string][]string, emoji, userID string) map[string][]string {
	out := copyReactions(reactions)
	users := out[emoji]
	next := make([]string, 0, len(users))
	for _, id := range users {
		if id != userID {
			next = append(next, id)
		}
	}
	if len(next) == 0 {
		delete(out, emoji)
	} else {
		out[emoji] = next
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func copyReactions(reactions map[string][]string) map[string][]string {
	out := make(map[string][]string, len(reactions)+1)
	for emoji, users := range reactions {
		out[emoji] = users
	}
	return out
}
