package bots

import "strings"

// Greeting is the first chat line a responder sends after joining.
const Greeting = "Hi! How are you?"

var cannedReplies = []string{
	"I see!",
	"Interesting, tell me more.",
	"Got it.",
	"Go on!",
	"Makes sense.",
	"Oh, I didn't know that!",
}

var keywordReplies = []struct {
	keywords []string
	reply    string
}{
	{[]string{"hello", "hi ", "hey"}, "Hello! How are you?"},
	{[]string{"how are you"}, "All good! And you?"},
	{[]string{"thank"}, "You're welcome!"},
	{[]string{"bye", "see you"}, "Bye! See you."},
}

// reply picks an answer to text. The n-th fallback rotates through the
// canned replies.
func reply(text string, n int) string {
	lower := strings.ToLower(text) + " "
	for _, kr := range keywordReplies {
		for _, k := range kr.keywords {
			if strings.Contains(lower, k) {
				return kr.reply
			}
		}
	}
	return cannedReplies[n%len(cannedReplies)]
}
