// Package extract turns fetched bodies into plain text and link lists.
//
// Three extractors cover what restaurant sites publish menus as:
//
//   - HTMLExtractor parses pages with goquery and returns the visible text,
//     the page title, raw anchor hrefs and image sources.
//   - PDFExtractor reads the text layer of PDF menus, decoding strings
//     through the page fonts. pdfcpu repairs files the reader rejects.
//     Scanned PDFs without a text layer yield empty text; there is no OCR
//     fallback.
//   - OCRExtractor decodes images, applies the EXIF orientation and runs a
//     Recognizer over them. Output is reduced to printable ASCII.
//
// Every extractor failure wraps ErrExtractionFailed.
package extract
