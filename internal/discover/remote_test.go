package discover

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/13rac1/nsload/internal/types"
)

// mockListClient serves ListObjectsV2 from an in-memory key set, two keys
// per page so pagination is exercised.
type mockListClient struct {
	objects map[string]int64
	err     error
	calls   int
}

func (m *mockListClient) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		for i, k := range keys {
			if k == *in.ContinuationToken {
				start = i
				break
			}
		}
	}

	end := start + 2
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[end])
	} else {
		end = len(keys)
	}

	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, s3types.Object{
			Key:  aws.String(k),
			Size: aws.Int64(m.objects[k]),
		})
	}
	return out, nil
}

func TestDiscoverRemote(t *testing.T) {
	client := &mockListClient{objects: map[string]int64{
		"plugins/class-main.php":            10,
		"plugins/interface-store.php":       20,
		"plugins/readme.txt":                5,
		"plugins/includes/class-helper.php": 30,
		"plugins/vendor/lib/class-dep.PHP":  40,
		"other/class-ignored.php":           50,
	}}

	files, err := DiscoverRemote(context.Background(), client, "bucket", "plugins", []string{".", "vendor"}, ".php")
	if err != nil {
		t.Fatalf("DiscoverRemote() error = %v", err)
	}

	want := []types.SourceFile{
		{Root: ".", RelPath: "class-main.php", Path: "plugins/class-main.php", Marker: types.MarkerClass, Size: 10},
		{Root: ".", RelPath: "includes/class-helper.php", Path: "plugins/includes/class-helper.php", Marker: types.MarkerClass, Size: 30},
		{Root: ".", RelPath: "interface-store.php", Path: "plugins/interface-store.php", Marker: types.MarkerInterface, Size: 20},
		{Root: "vendor", RelPath: "lib/class-dep.PHP", Path: "plugins/vendor/lib/class-dep.PHP", Marker: types.MarkerClass, Size: 40},
	}

	if len(files) != len(want) {
		t.Fatalf("got %d files, want %d: %+v", len(files), len(want), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %+v, want %+v", i, files[i], want[i])
		}
	}

	if client.calls < 3 {
		t.Errorf("expected paginated listing, got %d calls", client.calls)
	}
}

func TestDiscoverRemoteError(t *testing.T) {
	client := &mockListClient{err: errors.New("access denied")}

	_, err := DiscoverRemote(context.Background(), client, "bucket", "", []string{"vendor"}, ".php")
	if err == nil {
		t.Fatal("expected error but got none")
	}
	if !strings.Contains(err.Error(), "list class root vendor") {
		t.Errorf("error = %q, want it to name the class root", err.Error())
	}
}

func TestRootPrefix(t *testing.T) {
	tests := []struct {
		name string
		base string
		root string
		want string
	}{
		{name: "dot root", base: "plugins/", root: ".", want: "plugins/"},
		{name: "named root", base: "plugins/", root: "vendor", want: "plugins/vendor/"},
		{name: "root with slashes", base: "plugins/", root: "/lib/", want: "plugins/lib/"},
		{name: "backslash root", base: "", root: `vendor\acme`, want: "vendor/acme/"},
		{name: "empty base", base: "", root: ".", want: ""},
		{name: "dot slash root", base: "p/", root: "./src", want: "p/src/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rootPrefix(tt.base, tt.root)
			if got != tt.want {
				t.Errorf("rootPrefix(%q, %q) = %q, want %q", tt.base, tt.root, got, tt.want)
			}
		})
	}
}
