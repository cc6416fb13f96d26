// Package logx configures idleshutdown's structured logging.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller)
//   - The log file plain and greppable, truncated on every start unless
//     append mode is requested
//   - Scheduler warnings rate limited so a broken idle source cannot flood
//     the file (see Sink)
package logx
