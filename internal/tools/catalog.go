// Package tools описывает каталог инструментов, закрытых гейтом.
package tools

// Tool — элемент каталога.
type Tool struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

var catalog = []Tool{
	newTool("basic-seo-tools", "Basic SEO Tools"),
	newTool("color-palette-generator", "Color Palette Generator"),
	newTool("encoder-decoder-tools", "Encoder / Decoder Tools"),
	newTool("favicon-generator", "Favicon Generator"),
	newTool("https-ssl-checker", "HTTPS / SSL Checker"),
	newTool("image-compressor", "Image Compressor"),
	newTool("legal-pages-generator", "Legal Pages Generator"),
	newTool("meta-tags-extractor", "Meta Tags Extractor"),
	newTool("mobile-friendly-checker", "Mobile Friendly Checker"),
	newTool("page-structure-generator", "Page Structure Generator"),
	newTool("qr-code-generator", "QR Code Generator"),
	newTool("site-analyzer", "Site Analyzer"),
	newTool("slogan-idea-generator", "Slogan / Idea Generator"),
	newTool("speed-test", "Speed Test"),
	newTool("templates-library", "Templates Library"),
	newTool("text-generator", "Text Generator"),
	newTool("unit-converter", "Format / Unit Converters"),
}

func newTool(slug, title string) Tool {
	return Tool{Slug: slug, Title: title, Path: "/tools/" + slug}
}

// Catalog возвращает копию каталога, отсортированного по slug.
func Catalog() []Tool {
	out := make([]Tool, len(catalog))
	copy(out, catalog)
	return out
}
