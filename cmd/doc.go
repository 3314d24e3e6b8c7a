// Package cmd implements the command line interface of ai-chat.
//
// # Architecture
//
//   - root.go: App, cobra command setup, flags and the run modes
//   - init.go: the init and status subcommands
//   - session.go: ChatSession, the transcript and everything that changes it
//   - interactive.go: the go-prompt REPL and input dispatch
//   - slash_commands.go: /model, /history, /resume, /bash and friends
//   - print.go: printing a saved chat (-P)
//
// # Input handling
//
// Each line typed at the prompt is handled in this order:
//
//  1. Session words: q/quit/exit, s/save, c/clear, bash on/off
//  2. Slash commands such as /help or /model
//  3. Lines starting with the command prefix, run through the
//     executor.CommandProcessor
//  4. Anything else is sent to the model. Commands the reply suggests are
//     offered to the user before the next prompt.
//
// Ctrl+C while a request or command runs cancels that operation; at the
// prompt it ends the session.
package cmd
