package media

// EntityKind names the kind of record an attachment belongs to. The
// compression policy and the attachment path layout are keyed by it.
type EntityKind string

const (
	KindAlbumCover    EntityKind = "album_cover"
	KindPhoto         EntityKind = "photo"
	KindCategoryCover EntityKind = "category_cover"
)

// Upload is a freshly submitted image that has not been stored yet.
type Upload struct {
	Filename string
	Data     []byte
}

// Attachment is the in-flight image value of an entity being written: either a
// reference to an already stored file or a fresh upload, never both.
type Attachment struct {
	Path   string
	Upload *Upload
}

// Stored returns an attachment that references an existing stored file.
func Stored(path string) Attachment {
	return Attachment{Path: path}
}

// Fresh returns an attachment carrying new upload bytes.
func Fresh(filename string, data []byte) Attachment {
	return Attachment{Upload: &Upload{Filename: filename, Data: data}}
}

func (a Attachment) IsFresh() bool {
	return a.Upload != nil
}

func (a Attachment) IsEmpty() bool {
	return a.Upload == nil && a.Path == ""
}

// Metadata contains EXIF and dimension information captured before
// re-encoding strips it.
type Metadata struct {
	Width       *int    `json:"width,omitempty"`
	Height      *int    `json:"height,omitempty"`
	FileSize    *int64  `json:"file_size,omitempty"`
	CameraMake  *string `json:"camera_make,omitempty"`
	CameraModel *string `json:"camera_model,omitempty"`
	TakenAt     *int64  `json:"taken_at,omitempty"`
}
