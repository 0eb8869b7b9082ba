package discover

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/13rac1/nsload/internal/types"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DiscoverRemote lists source objects under bucket/prefix for every class
// root. Keys are matched against ext case-insensitively. As with
// DiscoverLocal, a nested root owns its own objects and each key is
// listed once.
func DiscoverRemote(ctx context.Context, client s3.ListObjectsV2APIClient, bucket, prefix string, roots []string, ext string) ([]types.SourceFile, error) {
	// Ensure prefix ends with / for consistent prefix matching
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	ext = strings.ToLower(ext)
	rootPrefixes := make([]string, len(roots))
	for i, root := range roots {
		rootPrefixes[i] = rootPrefix(prefix, root)
	}

	seen := make(map[string]bool)
	var files []types.SourceFile

	for i, root := range roots {
		objects, err := listObjects(ctx, client, bucket, rootPrefixes[i])
		if err != nil {
			return nil, fmt.Errorf("list class root %s: %w", root, err)
		}

		for _, obj := range objects {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(strings.ToLower(key), ext) || seen[key] {
				continue
			}
			if ownedByNestedRoot(key, rootPrefixes[i], rootPrefixes) {
				continue
			}
			seen[key] = true

			files = append(files, types.SourceFile{
				Root:    root,
				RelPath: strings.TrimPrefix(key, rootPrefixes[i]),
				Path:    key,
				Marker:  Classify(path.Base(key)),
				Size:    aws.ToInt64(obj.Size),
			})
		}
	}

	sortFiles(files)
	return files, nil
}

type object struct {
	Key  *string
	Size *int64
}

// listObjects returns every object under prefix. Uses pagination to handle
// large roots.
func listObjects(ctx context.Context, client s3.ListObjectsV2APIClient, bucket, prefix string) ([]object, error) {
	var objects []object

	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: &bucket,
		Prefix: &prefix,
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key != nil {
				objects = append(objects, object{Key: obj.Key, Size: obj.Size})
			}
		}
	}

	return objects, nil
}

// rootPrefix returns the key prefix of a class root under base.
// Given base="plugins/" and root="vendor", returns "plugins/vendor/".
// The "." root maps to base itself.
func rootPrefix(base, root string) string {
	clean := strings.Trim(path.Clean(strings.ReplaceAll(root, `\`, "/")), "/")
	if clean == "." || clean == "" {
		return base
	}
	return base + clean + "/"
}

// ownedByNestedRoot reports whether key sits under another root prefix that
// is itself nested below own.
func ownedByNestedRoot(key, own string, all []string) bool {
	for _, p := range all {
		if p != own && len(p) > len(own) && strings.HasPrefix(p, own) && strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
