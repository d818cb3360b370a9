package cluster

import (
	"context"
	"fmt"
	"io"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ClaimBound проверяет фазу PersistentVolumeClaim.
func (k *Kube) ClaimBound(ctx context.Context, namespace, name string) (bool, error) {
	claim, err := k.client.CoreV1().PersistentVolumeClaims(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	switch claim.Status.Phase {
	case corev1.ClaimBound:
		return true, nil
	case corev1.ClaimLost:
		return false, fmt.Errorf("%w: claim %s is lost", ErrResourceBroken, name)
	default:
		return false, nil
	}
}

// EndpointsReady проверяет, что у Service есть хотя бы один готовый endpoint.
func (k *Kube) EndpointsReady(ctx context.Context, namespace, service string) (bool, error) {
	endpoints, err := k.client.CoreV1().Endpoints(namespace).Get(ctx, service, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for _, subset := range endpoints.Subsets {
		if len(subset.Addresses) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// CheckJob возвращает наблюдаемое состояние Job по его условиям.
func (k *Kube) CheckJob(ctx context.Context, namespace, name string) (JobState, error) {
	job, err := k.client.BatchV1().Jobs(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return JobState{}, err
	}

	for _, cond := range job.Status.Conditions {
		if cond.Status != corev1.ConditionTrue {
			continue
		}
		switch cond.Type {
		case batchv1.JobComplete:
			return JobState{Phase: JobSucceeded}, nil
		case batchv1.JobFailed:
			return JobState{Phase: JobFailed, Reason: cond.Message}, nil
		}
	}

	if job.Status.Active > 0 {
		return JobState{Phase: JobActive}, nil
	}
	return JobState{Phase: JobPending}, nil
}

// JobLogs открывает стрим логов пода Job'а.
// Предпочитается успешно завершившийся под.
func (k *Kube) JobLogs(ctx context.Context, namespace, jobName string) (io.ReadCloser, error) {
	pods, err := k.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: "job-name=" + jobName,
	})
	if err != nil {
		return nil, fmt.Errorf("list job pods: %w", err)
	}
	if len(pods.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoJobPods, jobName)
	}

	pod := pods.Items[0]
	for _, candidate := range pods.Items {
		if candidate.Status.Phase == corev1.PodSucceeded {
			pod = candidate
			break
		}
	}

	req := k.client.CoreV1().Pods(namespace).GetLogs(pod.Name, &corev1.PodLogOptions{})
	stream, err := req.Stream(ctx)
	if err != nil {
		return nil, fmt.Errorf("stream pod logs: %w", err)
	}
	return stream, nil
}
