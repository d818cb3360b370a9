package manifests

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/shaiso/Mastokube/internal/config"
	"github.com/shaiso/Mastokube/internal/domain"
)

// configRequires — ресурсы конфигурации, без которых компоненты
// приложения не должны создаваться.
func configRequires() []domain.Reference {
	return []domain.Reference{
		{Kind: domain.KindSecret, Name: EnvSecretName},
		{Kind: domain.KindConfigMap, Name: ConfigName},
	}
}

// appEnvFrom подключает ConfigMap и Secret приложения целиком.
func appEnvFrom() []corev1.EnvFromSource {
	return []corev1.EnvFromSource{
		{ConfigMapRef: &corev1.ConfigMapEnvSource{
			LocalObjectReference: corev1.LocalObjectReference{Name: ConfigName},
		}},
		{SecretRef: &corev1.SecretEnvSource{
			LocalObjectReference: corev1.LocalObjectReference{Name: EnvSecretName},
		}},
	}
}

// systemVolume — общий том public/system (медиа, загруженные файлы).
func systemVolume() corev1.Volume {
	return corev1.Volume{
		Name: "system",
		VolumeSource: corev1.VolumeSource{
			PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
				ClaimName: SystemClaimName,
			},
		},
	}
}

// Web возвращает ресурсы веб-компонента: Deployment и Service.
func Web(env *config.Environment) []domain.Resource {
	labels := componentLabels("web")

	deploy := &appsv1.Deployment{
		ObjectMeta: objectMeta(WebDeploymentName, "web"),
		Spec: appsv1.DeploymentSpec{
			Replicas: &env.Replicas.Web,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:    "web",
							Image:   env.Images.Mastodon,
							Command: []string{"bundle", "exec", "puma", "-C", "config/puma.rb"},
							EnvFrom: appEnvFrom(),
							Ports: []corev1.ContainerPort{
								{Name: "http", ContainerPort: WebPort},
							},
							ReadinessProbe: &corev1.Probe{
								ProbeHandler: corev1.ProbeHandler{
									HTTPGet: &corev1.HTTPGetAction{
										Path: "/health",
										Port: intstr.FromInt32(WebPort),
									},
								},
								InitialDelaySeconds: 15,
								PeriodSeconds:       10,
							},
							VolumeMounts: []corev1.VolumeMount{
								{Name: "system", MountPath: "/mastodon/public/system"},
							},
						},
					},
					Volumes: []corev1.Volume{systemVolume()},
				},
			},
		},
	}

	svc := &corev1.Service{
		ObjectMeta: objectMeta(WebServiceName, "web"),
		Spec: corev1.ServiceSpec{
			Selector: labels,
			Ports: []corev1.ServicePort{
				{Name: "http", Port: WebPort, TargetPort: intstr.FromInt32(WebPort)},
			},
		},
	}

	return []domain.Resource{
		{Kind: domain.KindDeployment, Name: WebDeploymentName, Object: deploy, Requires: configRequires()},
		{Kind: domain.KindService, Name: WebServiceName, Object: svc},
	}
}

// Streaming возвращает ресурсы streaming-компонента: Deployment и Service.
func Streaming(env *config.Environment) []domain.Resource {
	labels := componentLabels("streaming")

	deploy := &appsv1.Deployment{
		ObjectMeta: objectMeta(StreamingDeploymentName, "streaming"),
		Spec: appsv1.DeploymentSpec{
			Replicas: &env.Replicas.Streaming,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:    "streaming",
							Image:   env.Images.Mastodon,
							Command: []string{"node", "./streaming"},
							EnvFrom: appEnvFrom(),
							Ports: []corev1.ContainerPort{
								{Name: "streaming", ContainerPort: StreamingPort},
							},
							ReadinessProbe: &corev1.Probe{
								ProbeHandler: corev1.ProbeHandler{
									HTTPGet: &corev1.HTTPGetAction{
										Path: "/api/v1/streaming/health",
										Port: intstr.FromInt32(StreamingPort),
									},
								},
								InitialDelaySeconds: 10,
								PeriodSeconds:       10,
							},
						},
					},
				},
			},
		},
	}

	svc := &corev1.Service{
		ObjectMeta: objectMeta(StreamingServiceName, "streaming"),
		Spec: corev1.ServiceSpec{
			Selector: labels,
			Ports: []corev1.ServicePort{
				{Name: "streaming", Port: StreamingPort, TargetPort: intstr.FromInt32(StreamingPort)},
			},
		},
	}

	return []domain.Resource{
		{Kind: domain.KindDeployment, Name: StreamingDeploymentName, Object: deploy, Requires: configRequires()},
		{Kind: domain.KindService, Name: StreamingServiceName, Object: svc},
	}
}

// Sidekiq возвращает Deployment обработчика фоновых задач.
// Service не нужен: sidekiq ничего не слушает.
func Sidekiq(env *config.Environment) []domain.Resource {
	labels := componentLabels("sidekiq")

	deploy := &appsv1.Deployment{
		ObjectMeta: objectMeta(SidekiqDeploymentName, "sidekiq"),
		Spec: appsv1.DeploymentSpec{
			Replicas: &env.Replicas.Sidekiq,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:    "sidekiq",
							Image:   env.Images.Mastodon,
							Command: []string{"bundle", "exec", "sidekiq"},
							EnvFrom: appEnvFrom(),
							VolumeMounts: []corev1.VolumeMount{
								{Name: "system", MountPath: "/mastodon/public/system"},
							},
						},
					},
					Volumes: []corev1.Volume{systemVolume()},
				},
			},
		},
	}

	return []domain.Resource{
		{Kind: domain.KindDeployment, Name: SidekiqDeploymentName, Object: deploy, Requires: configRequires()},
	}
}
