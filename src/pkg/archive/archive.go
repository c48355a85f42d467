/*
Package archive copies the run artifacts (report, workbook, invoice PDFs) to S3 under
{prefix}/{YYYYMMDD}-{run id}/{file name}.
*/
package archive

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

type Archiver struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
	prefix   string
}

func New(region, bucket, prefix string) (archiver *Archiver, e *xerr.Error) {
	if bucket == "" {
		return nil, xerr.NewError(fmt.Errorf("bucket is empty"), "configure s3 archive", region)
	}
	sess, sessionErr := session.NewSession(&aws.Config{Region: aws.String(region)})
	if sessionErr != nil {
		return nil, xerr.NewError(sessionErr, "create aws session", region)
	}
	return NewWithUploader(s3manager.NewUploader(sess), bucket, prefix), nil
}

func NewWithUploader(uploader s3manageriface.UploaderAPI, bucket, prefix string) *Archiver {
	return &Archiver{uploader: uploader, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// RunFolder is "YYYYMMDD-{runID}".
func RunFolder(day time.Time, runID string) string {
	return day.Format("20060102") + "-" + runID
}

func (a *Archiver) Key(runFolder, filePath string) string {
	return path.Join(a.prefix, runFolder, filepath.Base(filePath))
}

/*
Upload sends every file and returns the object keys. It stops at the first failure;
keys uploaded so far are returned with the error.
*/
func (a *Archiver) Upload(ctx context.Context, runFolder string, filePaths []string) (keys []string, e *xerr.Error) {
	for _, filePath := range filePaths {
		key, e := a.uploadFile(ctx, runFolder, filePath)
		if e != nil {
			return keys, e
		}
		keys = append(keys, key)
		tl.Log(tl.Detailed, palette.Green, "Uploaded '%s' to s3://%s/%s", filePath, a.bucket, key)
	}
	return keys, nil
}

func (a *Archiver) uploadFile(ctx context.Context, runFolder, filePath string) (key string, e *xerr.Error) {
	file, openErr := os.Open(filePath)
	if openErr != nil {
		return "", xerr.NewError(openErr, "open artifact", filePath)
	}
	defer file.Close()

	key = a.Key(runFolder, filePath)
	input := &s3manager.UploadInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if contentType := mime.TypeByExtension(filepath.Ext(filePath)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	_, uploadErr := a.uploader.UploadWithContext(ctx, input)
	if uploadErr != nil {
		return "", xerr.NewError(uploadErr, "upload artifact", key)
	}
	return key, nil
}
