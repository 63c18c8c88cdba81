package difftar

import "strings"

// binaryExtensions is the canonical list of file extensions treated as binary
// content, matching the npm binary-extensions catalogue.
var binaryExtensions = []string{
	"3dm", "3ds", "3g2", "3gp", "7z", "a", "aac", "adp", "afdesign", "afphoto",
	"afpub", "ai", "aif", "aiff", "alz", "ape", "apk", "appimage", "ar", "arj",
	"asf", "au", "avi", "bak", "baml", "bh", "bin", "bk", "bmp", "btif", "bz2",
	"bzip2", "cab", "caf", "cgm", "class", "cmx", "cpio", "cr2", "cur", "dat",
	"dcm", "deb", "dex", "djvu", "dll", "dmg", "dng", "doc", "docm", "docx",
	"dot", "dotm", "dra", "DS_Store", "dsk", "dts", "dtshd", "dvb", "dwg",
	"dxf", "ecelp4800", "ecelp7470", "ecelp9600", "egg", "eol", "eot", "epub",
	"exe", "f4v", "fbs", "fh", "fla", "flac", "flatpak", "fli", "flv", "fpx",
	"fst", "fvt", "g3", "gh", "gif", "graffle", "gz", "gzip", "h261", "h263",
	"h264", "icns", "ico", "ief", "img", "ipa", "iso", "jar", "jpeg", "jpg",
	"jpgv", "jpm", "jxr", "key", "ktx", "lha", "lib", "lvp", "lz", "lzh",
	"lzma", "lzo", "m3u", "m4a", "m4v", "mar", "mdi", "mht", "mid", "midi",
	"mj2", "mka", "mkv", "mmr", "mng", "mobi", "mov", "movie", "mp3", "mp4",
	"mp4a", "mpeg", "mpg", "mpga", "mxu", "nef", "npx", "numbers", "nupkg",
	"o", "odp", "ods", "odt", "oga", "ogg", "ogv", "otf", "ott", "pages",
	"pbm", "pcx", "pdb", "pdf", "pea", "pgm", "pic", "png", "pnm", "pot",
	"potm", "potx", "ppa", "ppam", "ppm", "pps", "ppsm", "ppsx", "ppt",
	"pptm", "pptx", "psd", "pya", "pyc", "pyo", "pyv", "qt", "rar", "ras",
	"raw", "resources", "rgb", "rip", "rlc", "rmf", "rmvb", "rpm", "rtf",
	"rz", "s3m", "s7z", "scpt", "sgi", "shar", "sil", "sketch", "slk", "smv",
	"snap", "snk", "so", "stl", "sub", "suo", "swf", "tar", "tbz", "tbz2",
	"tga", "tgz", "thmx", "tif", "tiff", "tlz", "ttc", "ttf", "txz", "udf",
	"uvh", "uvi", "uvm", "uvp", "uvs", "uvu", "viv", "vob", "war", "wav",
	"wax", "wbmp", "wdp", "weba", "webm", "webp", "whl", "wim", "wm", "wma",
	"wmv", "wmx", "woff", "woff2", "wrm", "wvx", "xbm", "xif", "xla", "xlam",
	"xls", "xlsb", "xlsm", "xlsx", "xlt", "xltm", "xltx", "xm", "xmind",
	"xpi", "xpm", "xwd", "xz", "z", "zip", "zipx",
}

// extraBinaryExtensions are additions on top of the canonical list.
var extraBinaryExtensions = []string{"wasm", "node"}

// binaryExtensionSet is process-wide read-only state built once at start-up.
var binaryExtensionSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(binaryExtensions)+len(extraBinaryExtensions))
	for _, ext := range binaryExtensions {
		set[strings.ToLower(ext)] = struct{}{}
	}
	for _, ext := range extraBinaryExtensions {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return set
}()

// IsBinaryExtension reports whether ext (without a leading dot, any case) is
// a known binary extension.
func IsBinaryExtension(ext string) bool {
	if ext == "" {
		return false
	}
	_, ok := binaryExtensionSet[strings.ToLower(ext)]
	return ok
}

// IsBinaryPath reports whether the path's extension marks it as binary
// content.
//
// The extension is the lowercased suffix after the final "." of the last path
// component. A leading-dot filename like ".gitignore" yields the extension
// "gitignore"; a path with no dot in its last component has no extension and
// is never binary.
func IsBinaryPath(path string) bool {
	if path == "" {
		return false
	}

	base := path[strings.LastIndexByte(path, '/')+1:]
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return false
	}

	return IsBinaryExtension(base[dot+1:])
}

// ShouldPrintPatch reports whether a textual patch should be produced for the
// path: always when opts force text treatment, otherwise only for non-binary
// paths.
func ShouldPrintPatch(path string, opts *DiffOptions) bool {
	if opts != nil && opts.Text {
		return true
	}
	return !IsBinaryPath(path)
}

// GetBinaryExtensions returns an independent copy of the full extension list
// including the additions; mutating it does not affect classification.
func GetBinaryExtensions() []string {
	exts := make([]string, 0, len(binaryExtensions)+len(extraBinaryExtensions))
	exts = append(exts, binaryExtensions...)
	exts = append(exts, extraBinaryExtensions...)
	return exts
}
