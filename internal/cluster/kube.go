package cluster

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/shaiso/Mastokube/internal/domain"
)

// hashAnnotation хранит хэш применённого желаемого состояния.
// Совпадение хэша — признак того, что apply будет no-op.
const hashAnnotation = "mastokube.io/spec-hash"

// Kube — реализация API поверх типизированного clientset'а client-go.
type Kube struct {
	client kubernetes.Interface
	logger *slog.Logger
}

// NewKube создаёт клиент кластера.
//
// Порядок поиска конфигурации: явный путь kubeconfig, in-cluster
// конфигурация, затем ~/.kube/config.
func NewKube(kubeconfig string, logger *slog.Logger) (*Kube, error) {
	restCfg, err := restConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("load kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Kube{client: clientset, logger: logger}, nil
}

// NewKubeWithClient создаёт Kube поверх готового clientset'а.
func NewKubeWithClient(client kubernetes.Interface, logger *slog.Logger) *Kube {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kube{client: client, logger: logger}
}

func restConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig != "" {
		return clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}
	return clientcmd.BuildConfigFromFlags("", clientcmd.RecommendedHomeFile)
}

// EnsureNamespace создаёт namespace, если его ещё нет.
func (k *Kube) EnsureNamespace(ctx context.Context, namespace string) error {
	_, err := k.client.CoreV1().Namespaces().Get(ctx, namespace, metav1.GetOptions{})
	if err == nil {
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("get namespace: %w", err)
	}

	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: namespace}}
	if _, err := k.client.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("create namespace: %w", err)
	}
	k.logger.Info("namespace created", "namespace", namespace)
	return nil
}

// resourceClient — общий срез типизированных клиентов client-go,
// достаточный для идемпотентного apply.
type resourceClient[T metav1.Object] interface {
	Get(ctx context.Context, name string, opts metav1.GetOptions) (T, error)
	Create(ctx context.Context, obj T, opts metav1.CreateOptions) (T, error)
	Update(ctx context.Context, obj T, opts metav1.UpdateOptions) (T, error)
}

// applyObject реализует create-or-update с проверкой хэша.
//
// merge (опционально) переносит immutable-поля живого объекта в
// желаемый перед Update (например, clusterIP у Service).
func applyObject[T metav1.Object](ctx context.Context, c resourceClient[T], desired T, merge func(existing, desired T)) (Outcome, error) {
	hash, err := specHash(desired)
	if err != nil {
		return "", err
	}
	setHashAnnotation(desired, hash)

	existing, err := c.Get(ctx, desired.GetName(), metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := c.Create(ctx, desired, metav1.CreateOptions{}); err != nil {
			return "", err
		}
		return OutcomeCreated, nil
	}
	if err != nil {
		return "", err
	}

	if existing.GetAnnotations()[hashAnnotation] == hash {
		return OutcomeUnchanged, nil
	}

	if merge != nil {
		merge(existing, desired)
	}
	desired.SetResourceVersion(existing.GetResourceVersion())
	if _, err := c.Update(ctx, desired, metav1.UpdateOptions{}); err != nil {
		return "", err
	}
	return OutcomeConfigured, nil
}

// specHash считает хэш желаемого состояния до простановки аннотации.
func specHash(obj any) (string, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("marshal spec: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func setHashAnnotation(obj metav1.Object, hash string) {
	annotations := obj.GetAnnotations()
	if annotations == nil {
		annotations = make(map[string]string, 1)
	}
	annotations[hashAnnotation] = hash
	obj.SetAnnotations(annotations)
}

// Apply идемпотентно применяет один ресурс.
//
// Желаемый объект копируется: план не должен мутировать от простановки
// аннотаций и resourceVersion.
func (k *Kube) Apply(ctx context.Context, namespace string, res *domain.Resource) (Outcome, error) {
	switch obj := res.Object.(type) {
	case *corev1.PersistentVolume:
		return applyObject(ctx, k.client.CoreV1().PersistentVolumes(), obj.DeepCopy(), nil)

	case *corev1.PersistentVolumeClaim:
		return applyObject(ctx, k.client.CoreV1().PersistentVolumeClaims(namespace), obj.DeepCopy(), nil)

	case *corev1.Service:
		// clusterIP назначается сервером и неизменяем.
		merge := func(existing, desired *corev1.Service) {
			desired.Spec.ClusterIP = existing.Spec.ClusterIP
			desired.Spec.ClusterIPs = existing.Spec.ClusterIPs
		}
		return applyObject(ctx, k.client.CoreV1().Services(namespace), obj.DeepCopy(), merge)

	case *corev1.Secret:
		return applyObject(ctx, k.client.CoreV1().Secrets(namespace), obj.DeepCopy(), nil)

	case *corev1.ConfigMap:
		return applyObject(ctx, k.client.CoreV1().ConfigMaps(namespace), obj.DeepCopy(), nil)

	case *appsv1.Deployment:
		return applyObject(ctx, k.client.AppsV1().Deployments(namespace), obj.DeepCopy(), nil)

	case *networkingv1.Ingress:
		return applyObject(ctx, k.client.NetworkingV1().Ingresses(namespace), obj.DeepCopy(), nil)

	case *batchv1.Job:
		return k.applyJob(ctx, namespace, obj.DeepCopy())

	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, res.Kind)
	}
}

// applyJob — отдельный путь для Job: шаблон Job неизменяем, поэтому
// изменившийся Job пересоздаётся вместо Update.
func (k *Kube) applyJob(ctx context.Context, namespace string, desired *batchv1.Job) (Outcome, error) {
	jobs := k.client.BatchV1().Jobs(namespace)

	hash, err := specHash(desired)
	if err != nil {
		return "", err
	}
	setHashAnnotation(desired, hash)

	existing, err := jobs.Get(ctx, desired.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := jobs.Create(ctx, desired, metav1.CreateOptions{}); err != nil {
			return "", err
		}
		return OutcomeCreated, nil
	}
	if err != nil {
		return "", err
	}

	if existing.Annotations[hashAnnotation] == hash {
		return OutcomeUnchanged, nil
	}

	k.logger.Info("job spec changed, recreating", "job", desired.Name)

	propagation := metav1.DeletePropagationForeground
	if err := jobs.Delete(ctx, desired.Name, metav1.DeleteOptions{PropagationPolicy: &propagation}); err != nil && !apierrors.IsNotFound(err) {
		return "", err
	}

	// Foreground-удаление может ещё не завершиться: AlreadyExists
	// здесь — транзиентная ошибка, стадия повторит apply.
	if _, err := jobs.Create(ctx, desired, metav1.CreateOptions{}); err != nil {
		return "", err
	}
	return OutcomeConfigured, nil
}

// Exists проверяет существование ресурса, читая живое состояние кластера.
func (k *Kube) Exists(ctx context.Context, namespace string, ref domain.Reference) (bool, error) {
	var err error
	switch ref.Kind {
	case domain.KindPersistentVolume:
		_, err = k.client.CoreV1().PersistentVolumes().Get(ctx, ref.Name, metav1.GetOptions{})
	case domain.KindPersistentVolumeClaim:
		_, err = k.client.CoreV1().PersistentVolumeClaims(namespace).Get(ctx, ref.Name, metav1.GetOptions{})
	case domain.KindService:
		_, err = k.client.CoreV1().Services(namespace).Get(ctx, ref.Name, metav1.GetOptions{})
	case domain.KindSecret:
		_, err = k.client.CoreV1().Secrets(namespace).Get(ctx, ref.Name, metav1.GetOptions{})
	case domain.KindConfigMap:
		_, err = k.client.CoreV1().ConfigMaps(namespace).Get(ctx, ref.Name, metav1.GetOptions{})
	case domain.KindDeployment:
		_, err = k.client.AppsV1().Deployments(namespace).Get(ctx, ref.Name, metav1.GetOptions{})
	case domain.KindJob:
		_, err = k.client.BatchV1().Jobs(namespace).Get(ctx, ref.Name, metav1.GetOptions{})
	case domain.KindIngress:
		_, err = k.client.NetworkingV1().Ingresses(namespace).Get(ctx, ref.Name, metav1.GetOptions{})
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedKind, ref.Kind)
	}

	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete удаляет ресурс. NotFound игнорируется.
func (k *Kube) Delete(ctx context.Context, namespace string, ref domain.Reference) error {
	propagation := metav1.DeletePropagationBackground
	opts := metav1.DeleteOptions{PropagationPolicy: &propagation}

	var err error
	switch ref.Kind {
	case domain.KindPersistentVolume:
		err = k.client.CoreV1().PersistentVolumes().Delete(ctx, ref.Name, opts)
	case domain.KindPersistentVolumeClaim:
		err = k.client.CoreV1().PersistentVolumeClaims(namespace).Delete(ctx, ref.Name, opts)
	case domain.KindService:
		err = k.client.CoreV1().Services(namespace).Delete(ctx, ref.Name, opts)
	case domain.KindSecret:
		err = k.client.CoreV1().Secrets(namespace).Delete(ctx, ref.Name, opts)
	case domain.KindConfigMap:
		err = k.client.CoreV1().ConfigMaps(namespace).Delete(ctx, ref.Name, opts)
	case domain.KindDeployment:
		err = k.client.AppsV1().Deployments(namespace).Delete(ctx, ref.Name, opts)
	case domain.KindJob:
		err = k.client.BatchV1().Jobs(namespace).Delete(ctx, ref.Name, opts)
	case domain.KindIngress:
		err = k.client.NetworkingV1().Ingresses(namespace).Delete(ctx, ref.Name, opts)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, ref.Kind)
	}

	if err != nil && !apierrors.IsNotFound(err) {
		return err
	}
	return nil
}
