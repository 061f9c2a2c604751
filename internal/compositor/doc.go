// Package compositor renders a critique's closing roast and the listener's top tracks onto a 1080x1920 image.
//
// # Layout
//
// Positions come from font line metrics, not fixed coordinates. [Compositor.Plan] computes one [Block] per drawn
// element (title, roast, tracks header, one per track) and [Compositor.Render] draws exactly that plan:
//
//  1. The title at a fixed offset.
//  2. The closing roast (last non-empty critique line, asterisks removed), wrapped at 40 characters.
//  3. The "Your top tracks:" header, pushed down by the roast block's height.
//  4. Each track as "{i}. {name} - {artist}", wrapped at 45 characters, stacked with a running cursor.
//
// The faces used to offset and to advance the track cursor are explicit [Layout] fields. By default the cursor
// is offset by the title face and advanced by the body face.
//
// # Fonts
//
// [LoadFaces] parses TrueType fonts with freetype and falls back to the opentype parser for CFF outlines.
// [DefaultFaces] uses the embedded Go Mono font.
package compositor
