package summarize

import "strings"

const promptHeader = `You are a technical documentation assistant. Turn the Slack conversation below
into a clear, well-structured knowledge base article in markdown.

Requirements:
1. Give the article a descriptive title naming the main topic.
2. Pick 3-7 keywords for the main topics, technologies and concepts.
3. Keep only technical content: explanations, code snippets, solutions,
   recommendations, links and references.
4. Drop conversational elements such as greetings and thanks.
5. Merge related points into coherent explanations grouped under headers.
6. Write in a neutral, encyclopedic tone.

Do NOT include who said what, when it was said, back-and-forth, off-topic
discussion, or personal opinions that are not technical best practice.

Output format:
- A title as a level-one heading (# Title)
- Directly after the title, a keywords line: **Keywords:** keyword1, keyword2, keyword3
- An overview section describing what the article covers
- Subsections for the technical content
- Fenced code blocks for code
- Links to any external resources mentioned

Example:
# How to Configure Redis for High Availability

**Keywords:** redis, high-availability, clustering, replication, failover

## Overview
[content here]

Conversation:
`

// Prompt builds the model input for a thread's content.
func Prompt(content string) string {
	var b strings.Builder
	b.Grow(len(promptHeader) + len(content) + 64)
	b.WriteString(promptHeader)
	b.WriteString("\n")
	b.WriteString(content)
	b.WriteString("\n\nGenerate the knowledge base article:")
	return b.String()
}
