package songdb

import "strings"

// Two different songs are both titled "Link". They are told apart by genre.
const (
	ambiguousTitle = "Link"
	linkNico       = "Link (nico)"
	linkOriginal   = "Link (org)"
)

// Nickname returns the database key for a song: its name, unless the name
// is shared by several songs and needs the genre to disambiguate.
func Nickname(name, genre string) string {
	if name == ambiguousTitle {
		if strings.Contains(genre, "niconico") {
			return linkNico
		}
		return linkOriginal
	}
	return name
}

// GenreFromNickname recovers the genre implied by a disambiguated nickname,
// or "" when the nickname carries no genre.
func GenreFromNickname(nickname string) string {
	switch nickname {
	case linkNico:
		return "niconico"
	case linkOriginal:
		return "maimai"
	}
	return ""
}
