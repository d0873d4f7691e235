package shell

import (
	"embed"
	"io/fs"
	"strings"
)

//go:embed helptext/*.txt
var helptext embed.FS

func usage(mode string) string {
	dat, err := helptext.ReadFile("helptext/usage-" + mode + ".txt")
	if err != nil {
		return "Error loading helptext: " + err.Error()
	}
	return string(dat)
}

func usageTopic(topic string) string {
	dat, err := helptext.ReadFile("helptext/" + topic + ".txt")
	if err != nil {
		return "There is no help text for the topic " + topic
	}
	return string(dat)
}

func helpTopics() []string {
	entries, err := fs.ReadDir(helptext, "helptext")
	if err != nil {
		return nil
	}
	var topics []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".txt")
		if !strings.HasPrefix(name, "usage-") {
			topics = append(topics, name)
		}
	}
	return topics
}
