package kube

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Fake is an in-memory Interface implementation for tests. It supports
// injectable per-verb failures, a patch hook that can simulate admission
// webhooks mutating objects mid-flight, and call counters so tests can
// assert on exactly which operations were issued.
type Fake struct {
	mu      sync.Mutex
	objects map[string]map[string]*unstructured.Unstructured
	errs    map[string]error
	calls   map[string]int

	// PatchHook runs after a patch is applied, before the call returns.
	// Tests use it to re-add finalizers the way a live webhook would.
	PatchHook func(gvr schema.GroupVersionResource, namespace, name string, obj *unstructured.Unstructured)
}

var _ Interface = (*Fake)(nil)

// NewFake returns an empty fake cluster.
func NewFake() *Fake {
	return &Fake{
		objects: make(map[string]map[string]*unstructured.Unstructured),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func objectKey(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "/" + name
}

// Add puts an object into the fake cluster.
func (f *Fake) Add(gvr schema.GroupVersionResource, obj *unstructured.Unstructured) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := f.objects[gvr.String()]
	if bucket == nil {
		bucket = make(map[string]*unstructured.Unstructured)
		f.objects[gvr.String()] = bucket
	}
	bucket[objectKey(obj.GetNamespace(), obj.GetName())] = obj.DeepCopy()
}

// Has reports whether an object is still present.
func (f *Fake) Has(gvr schema.GroupVersionResource, namespace, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[gvr.String()][objectKey(namespace, name)]
	return ok
}

// FailOn injects err for every call of verb against a resource. An empty
// name applies to all objects of the kind.
func (f *Fake) FailOn(verb, resource, name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[errKey(verb, resource, name)] = err
}

func errKey(verb, resource, name string) string {
	if name == "" {
		return verb + "/" + resource
	}
	return verb + "/" + resource + "/" + name
}

func (f *Fake) injectedError(verb, resource, name string) error {
	if err, ok := f.errs[errKey(verb, resource, name)]; ok {
		return err
	}
	if err, ok := f.errs[errKey(verb, resource, "")]; ok {
		return err
	}
	return nil
}

// Calls returns how many times a verb was issued against a resource.
// With resource == "" it counts the verb across all resources.
func (f *Fake) Calls(verb, resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if resource != "" {
		return f.calls[verb+"/"+resource]
	}
	total := 0
	for k, n := range f.calls {
		if len(k) > len(verb) && k[:len(verb)+1] == verb+"/" {
			total += n
		}
	}
	return total
}

// Mutations returns the total number of patch and delete calls issued.
func (f *Fake) Mutations() int {
	return f.Calls("patch", "") + f.Calls("delete", "")
}

func (f *Fake) record(verb, resource string) {
	f.calls[verb+"/"+resource]++
}

func notFound(gvr schema.GroupVersionResource, name string) error {
	return apierrors.NewNotFound(schema.GroupResource{Group: gvr.Group, Resource: gvr.Resource}, name)
}

// List returns objects of a kind, filtered by namespace when set.
func (f *Fake) List(ctx context.Context, gvr schema.GroupVersionResource, namespace string) (*unstructured.UnstructuredList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("list", gvr.Resource)
	if err := f.injectedError("list", gvr.Resource, ""); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	list := &unstructured.UnstructuredList{}
	for _, obj := range f.objects[gvr.String()] {
		if namespace != "" && obj.GetNamespace() != namespace {
			continue
		}
		list.Items = append(list.Items, *obj.DeepCopy())
	}
	return list, nil
}

// Get fetches a single object.
func (f *Fake) Get(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) (*unstructured.Unstructured, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("get", gvr.Resource)
	if err := f.injectedError("get", gvr.Resource, name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	obj, ok := f.objects[gvr.String()][objectKey(namespace, name)]
	if !ok {
		return nil, notFound(gvr, name)
	}
	return obj.DeepCopy(), nil
}

// PatchMerge applies the finalizer-relevant subset of a merge patch:
// metadata.finalizers and spec.finalizers set or cleared.
func (f *Fake) PatchMerge(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string, body []byte) error {
	return f.patch(ctx, gvr, namespace, name, func(obj *unstructured.Unstructured) error {
		var patch struct {
			Metadata *struct {
				Finalizers *[]string `json:"finalizers"`
			} `json:"metadata"`
			Spec *struct {
				Finalizers *[]string `json:"finalizers"`
			} `json:"spec"`
		}
		if err := json.Unmarshal(body, &patch); err != nil {
			return fmt.Errorf("bad merge patch: %w", err)
		}
		if patch.Metadata != nil {
			if patch.Metadata.Finalizers == nil || len(*patch.Metadata.Finalizers) == 0 {
				unstructured.RemoveNestedField(obj.Object, "metadata", "finalizers")
			} else {
				obj.SetFinalizers(*patch.Metadata.Finalizers)
			}
		}
		if patch.Spec != nil {
			if patch.Spec.Finalizers == nil || len(*patch.Spec.Finalizers) == 0 {
				unstructured.RemoveNestedField(obj.Object, "spec", "finalizers")
			}
		}
		return nil
	})
}

// PatchJSON applies the remove operations the stripper issues.
func (f *Fake) PatchJSON(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string, body []byte) error {
	return f.patch(ctx, gvr, namespace, name, func(obj *unstructured.Unstructured) error {
		var ops []struct {
			Op   string `json:"op"`
			Path string `json:"path"`
		}
		if err := json.Unmarshal(body, &ops); err != nil {
			return fmt.Errorf("bad json patch: %w", err)
		}
		for _, op := range ops {
			switch {
			case op.Op == "remove" && op.Path == "/metadata/finalizers":
				unstructured.RemoveNestedField(obj.Object, "metadata", "finalizers")
			case op.Op == "remove" && op.Path == "/spec/finalizers":
				unstructured.RemoveNestedField(obj.Object, "spec", "finalizers")
			default:
				return fmt.Errorf("unsupported json patch op %s %s", op.Op, op.Path)
			}
		}
		return nil
	})
}

func (f *Fake) patch(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string, apply func(*unstructured.Unstructured) error) error {
	f.mu.Lock()

	f.record("patch", gvr.Resource)
	if err := f.injectedError("patch", gvr.Resource, name); err != nil {
		f.mu.Unlock()
		return err
	}
	if err := ctx.Err(); err != nil {
		f.mu.Unlock()
		return err
	}

	obj, ok := f.objects[gvr.String()][objectKey(namespace, name)]
	if !ok {
		f.mu.Unlock()
		return notFound(gvr, name)
	}
	err := apply(obj)
	hook := f.PatchHook

	// The hook runs unlocked so it may call back into the fake (e.g. to
	// check whether the webhook configuration still exists).
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if hook != nil {
		hook(gvr, namespace, name, obj)
	}
	f.finalize(gvr, namespace, name)
	return nil
}

// finalize removes a deleting object once its last finalizer is gone, the
// way the API server garbage-collects after a finalizer-clearing patch.
func (f *Fake) finalize(gvr schema.GroupVersionResource, namespace, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := objectKey(namespace, name)
	obj, ok := f.objects[gvr.String()][key]
	if !ok {
		return
	}
	if obj.GetDeletionTimestamp() != nil && len(obj.GetFinalizers()) == 0 {
		delete(f.objects[gvr.String()], key)
	}
}

// Delete removes an object. Like the API server, an object that still
// carries finalizers is not removed: its deletion timestamp is set and it
// stays visible until the finalizers are cleared.
func (f *Fake) Delete(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string, gracePeriodSeconds *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("delete", gvr.Resource)
	if err := f.injectedError("delete", gvr.Resource, name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := objectKey(namespace, name)
	obj, ok := f.objects[gvr.String()][key]
	if !ok {
		return notFound(gvr, name)
	}
	if len(obj.GetFinalizers()) > 0 {
		now := metav1.Now()
		obj.SetDeletionTimestamp(&now)
		return nil
	}
	delete(f.objects[gvr.String()], key)
	return nil
}
