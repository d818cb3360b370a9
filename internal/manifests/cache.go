package manifests

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/shaiso/Mastokube/internal/config"
	"github.com/shaiso/Mastokube/internal/domain"
)

// Cache возвращает ресурсы Redis: Deployment и Service.
func Cache(env *config.Environment) []domain.Resource {
	labels := componentLabels("redis")
	replicas := int32(1)

	deploy := &appsv1.Deployment{
		ObjectMeta: objectMeta(RedisServiceName, "redis"),
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Strategy: appsv1.DeploymentStrategy{Type: appsv1.RecreateDeploymentStrategyType},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:    "redis",
							Image:   env.Images.Redis,
							Command: []string{"redis-server", "--appendonly", "yes"},
							Ports: []corev1.ContainerPort{
								{Name: "redis", ContainerPort: RedisPort},
							},
							ReadinessProbe: &corev1.Probe{
								ProbeHandler: corev1.ProbeHandler{
									Exec: &corev1.ExecAction{
										Command: []string{"redis-cli", "ping"},
									},
								},
								InitialDelaySeconds: 3,
								PeriodSeconds:       5,
							},
							VolumeMounts: []corev1.VolumeMount{
								{Name: "data", MountPath: "/data"},
							},
						},
					},
					Volumes: []corev1.Volume{
						{
							Name: "data",
							VolumeSource: corev1.VolumeSource{
								PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
									ClaimName: RedisClaimName,
								},
							},
						},
					},
				},
			},
		},
	}

	svc := &corev1.Service{
		ObjectMeta: objectMeta(RedisServiceName, "redis"),
		Spec: corev1.ServiceSpec{
			Selector: labels,
			Ports: []corev1.ServicePort{
				{Name: "redis", Port: RedisPort, TargetPort: intstr.FromInt32(RedisPort)},
			},
		},
	}

	return []domain.Resource{
		{
			Kind:   domain.KindDeployment,
			Name:   RedisServiceName,
			Object: deploy,
			Requires: []domain.Reference{
				{Kind: domain.KindPersistentVolumeClaim, Name: RedisClaimName},
			},
		},
		{Kind: domain.KindService, Name: RedisServiceName, Object: svc},
	}
}
