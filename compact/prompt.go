package compact

// SummarizationSystemPrompt instructs the model to produce a summary
// that can stand in for the messages it replaces.
const SummarizationSystemPrompt = `You are a conversation summarizer. You will be given a transcript of a conversation between a user and an AI assistant. Produce a summary that can replace the original messages while preserving everything needed to continue the conversation.

Cover, in order:

1. **Goal** - what the user is trying to accomplish, including stated constraints.
2. **Decisions** - technical choices made and the reasoning behind them.
3. **Artifacts** - files, code, or data created, modified, or discussed, with names and paths.
4. **Problems** - errors encountered and how they were resolved or worked around.
5. **Open items** - pending tasks and the immediate next step.

Guidelines:
- Be concise but complete; prefer specifics (names, paths, error text) over commentary.
- Keep events in chronological order within each section.
- Quote the user verbatim where exact wording carries intent.
- Do not invent information that is not in the transcript.`

// BuildSummarizationPrompt wraps a rendered transcript in the user
// message handed to the summarization delegate.
func BuildSummarizationPrompt(transcript string) string {
	return `Summarize the following conversation according to your instructions.

<conversation>
` + transcript + `
</conversation>

The summary will replace these messages in the ongoing conversation, so it must carry enough context for the assistant to continue seamlessly.`
}
