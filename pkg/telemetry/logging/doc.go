// Package logging configures log/slog for magicbox.
//
// New builds a JSON or text logger whose handler copies request fields from
// the context onto each record:
//
//	logger, _ := logging.Setup(logging.Config{Level: "debug", Format: "text"})
//
//	ctx = logging.WithRequestID(ctx, "3f6c...")
//	ctx = logging.WithModel(ctx, "person")
//	logger.InfoContext(ctx, "query built")  // request_id=3f6c... model=person
//
// Packages log through slog.Default().With("component", name), so Setup is
// all a command needs to call.
package logging
