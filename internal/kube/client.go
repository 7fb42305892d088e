// Package kube provides a narrow Kubernetes client for the teardown
// pipeline: list, get, patch and delete across arbitrary resource kinds.
//
// The interface is deliberately small so phase logic can be tested against
// an in-memory fake without a cluster.
package kube

import (
	"context"
	"fmt"
	"os"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"golang.org/x/time/rate"
)

// Interface is the cluster surface the teardown pipeline needs. Namespace
// is empty for cluster-scoped kinds; for namespaced kinds an empty
// namespace on List means all namespaces.
type Interface interface {
	List(ctx context.Context, gvr schema.GroupVersionResource, namespace string) (*unstructured.UnstructuredList, error)
	Get(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) (*unstructured.Unstructured, error)
	PatchMerge(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string, body []byte) error
	PatchJSON(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string, body []byte) error
	Delete(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string, gracePeriodSeconds *int64) error
}

// Client implements Interface against a real cluster using the dynamic
// client. All calls share one rate limiter so bulk phases cannot flood the
// API server.
type Client struct {
	dynamic dynamic.Interface
	limiter *rate.Limiter
}

var _ Interface = (*Client)(nil)

// NewClient creates a client from a kubeconfig path, falling back to the
// in-cluster config when path is empty and no KUBECONFIG is set.
func NewClient(kubeconfigPath string) (*Client, error) {
	config, err := buildRESTConfig(kubeconfigPath)
	if err != nil {
		return nil, err
	}
	return newClient(config)
}

// NewClientFromBytes creates a client from kubeconfig bytes.
func NewClientFromBytes(kubeconfig []byte) (*Client, error) {
	config, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig from bytes: %w", err)
	}
	return newClient(config)
}

func newClient(config *rest.Config) (*Client, error) {
	dynamicClient, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	return &Client{
		dynamic: dynamicClient,
		limiter: rate.NewLimiter(rate.Limit(20), 50),
	}, nil
}

func buildRESTConfig(kubeconfigPath string) (*rest.Config, error) {
	if kubeconfigPath == "" {
		if config, err := rest.InClusterConfig(); err == nil {
			return config, nil
		}
		kubeconfigPath = os.Getenv("KUBECONFIG")
		if kubeconfigPath == "" {
			kubeconfigPath = clientcmd.RecommendedHomeFile
		}
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig: %w", err)
	}
	return config, nil
}

func (c *Client) resource(gvr schema.GroupVersionResource, namespace string) dynamic.ResourceInterface {
	if namespace != "" {
		return c.dynamic.Resource(gvr).Namespace(namespace)
	}
	return c.dynamic.Resource(gvr)
}

// List lists resources of a kind. An empty namespace lists cluster-wide.
func (c *Client) List(ctx context.Context, gvr schema.GroupVersionResource, namespace string) (*unstructured.UnstructuredList, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.resource(gvr, namespace).List(ctx, metav1.ListOptions{})
}

// Get fetches a single resource.
func (c *Client) Get(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) (*unstructured.Unstructured, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.resource(gvr, namespace).Get(ctx, name, metav1.GetOptions{})
}

// PatchMerge applies an RFC 7386 merge patch body.
func (c *Client) PatchMerge(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string, body []byte) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.resource(gvr, namespace).Patch(ctx, name, types.MergePatchType, body, metav1.PatchOptions{})
	return err
}

// PatchJSON applies an RFC 6902 JSON patch body.
func (c *Client) PatchJSON(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string, body []byte) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.resource(gvr, namespace).Patch(ctx, name, types.JSONPatchType, body, metav1.PatchOptions{})
	return err
}

// Delete removes a resource. A nil grace period uses the server default;
// zero forces immediate termination.
func (c *Client) Delete(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string, gracePeriodSeconds *int64) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	opts := metav1.DeleteOptions{GracePeriodSeconds: gracePeriodSeconds}
	return c.resource(gvr, namespace).Delete(ctx, name, opts)
}
