package assistant

import (
	"fmt"
	"strings"
)

// CommandName slash command keyword
type CommandName string

// slash commands
const (
	CommandAI        CommandName = "/ai"
	CommandSummarize CommandName = "/summarize"
	CommandTranslate CommandName = "/translate"
	CommandExplain   CommandName = "/explain"
	CommandFix       CommandName = "/fix"
	CommandImprove   CommandName = "/improve"
	CommandHelp      CommandName = "/help"
)

var knownCommands = map[CommandName]bool{
	CommandAI: true, CommandSummarize: true, CommandTranslate: true, CommandExplain: true,
	CommandFix: true, CommandImprove: true, CommandHelp: true,
}

// Command parsed slash command
type Command struct {
	Name CommandName
	Args string
}

// ParseCommand recognise a known slash command at the start of text
func ParseCommand(text string) (*Command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return nil, false
	}

	name, args, _ := strings.Cut(text, " ")
	cmd := CommandName(strings.ToLower(name))
	if !knownCommands[cmd] {
		return nil, false
	}
	return &Command{Name: cmd, Args: strings.TrimSpace(args)}, true
}

// Plan what to do for a command: either a fixed reply or a model prompt
type Plan struct {
	Reply        string
	Prompt       string
	NeedsChats   bool
	WithoutModel bool
}

var usages = map[CommandName]string{
	CommandAI:        "Please provide a question. Example: /ai What is React?",
	CommandTranslate: "Please provide text to translate. Example: /translate to Spanish: Hello world",
	CommandExplain:   "Please provide something to explain. Example: /explain async/await in JavaScript",
	CommandFix:       "Please provide text or code to fix. Example: /fix This sentense has erors",
	CommandImprove:   "Please provide text or code to improve. Example: /improve Make this email more professional: Hey, can u help?",
}

// NoChatsReply /summarize without any human conversation
const NoChatsReply = "No conversations to summarize yet!"

// PlanCommand build the prompt of a command; /summarize gets its prompt from SummarizePrompt
func PlanCommand(cmd *Command) Plan {
	if cmd.Name == CommandHelp {
		return Plan{Reply: HelpText, WithoutModel: true}
	}
	if cmd.Name == CommandSummarize {
		return Plan{NeedsChats: true}
	}
	if cmd.Args == "" {
		return Plan{Reply: usages[cmd.Name], WithoutModel: true}
	}

	switch cmd.Name {
	case CommandAI:
		return Plan{Prompt: fmt.Sprintf("User asked: %s\n\nPlease provide a helpful, concise answer.", cmd.Args)}
	case CommandTranslate:
		return Plan{Prompt: fmt.Sprintf("Translate the following text. %s\n\nProvide only the translation, no explanations.", cmd.Args)}
	case CommandExplain:
		return Plan{Prompt: "Explain this clearly and concisely: " + cmd.Args}
	case CommandFix:
		return Plan{Prompt: fmt.Sprintf("Fix any grammar, spelling, or code errors in the following:\n\n%s\n\nProvide the corrected version with a brief explanation of changes.", cmd.Args)}
	default:
		return Plan{Prompt: fmt.Sprintf("Improve the following to make it better (more professional, clearer, or more efficient):\n\n%s", cmd.Args)}
	}
}

// ChatLine one line of a conversation digest
type ChatLine struct {
	Sender string
	Text   string
}

// ChatDigest recent messages with one peer
type ChatDigest struct {
	PeerName string
	Lines    []ChatLine
}

// SummarizePrompt prompt over the user's recent conversations, empty when there is nothing to summarize
func SummarizePrompt(digests []ChatDigest) string {
	var b strings.Builder
	count := 0
	for _, d := range digests {
		if len(d.Lines) == 0 {
			continue
		}
		count++
		fmt.Fprintf(&b, "Conversation %d - with %s:\n", count, d.PeerName)
		for _, l := range d.Lines {
			fmt.Fprintf(&b, "  %s: %s\n", l.Sender, l.Text)
		}
		b.WriteString("\n")
	}
	if count == 0 {
		return ""
	}
	return fmt.Sprintf("Please provide a brief summary of these conversations:\n\nHere are your recent conversations:\n\n%s\nSummary should be concise and highlight key topics discussed.", b.String())
}

// HelpText reply of /help
const HelpText = `🤖 **Vach AI Slash Commands**

Available commands:
• **/ai [question]** - Ask AI anything
  Example: /ai What is machine learning?

• **/summarize** - Summarize your conversations
  Example: /summarize

• **/translate [text]** - Translate text
  Example: /translate to French: Hello world

• **/explain [topic]** - Get an explanation
  Example: /explain quantum computing

• **/fix [text/code]** - Fix errors
  Example: /fix This sentense has erors

• **/improve [text/code]** - Improve quality
  Example: /improve Make this sound professional: hey whats up

• **/help** - Show this message

Use these commands in any chat to get instant AI assistance! ✨`
